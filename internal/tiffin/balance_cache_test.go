package tiffin

import (
	"testing"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/tiffinclub/tiffin/internal/billing"
)

func owedStatement(pending int) billing.Statement {
	return billing.Statement{TotalDue: pending, Pending: pending}
}

func TestNewBalanceCache(t *testing.T) {
	tests := []struct {
		name   string
		ttl    time.Duration
		logger apt.Logger
	}{
		{name: "withDefaults", ttl: DefaultBalanceTTL, logger: apt.NewNoopLogger()},
		{name: "withNilLogger", ttl: time.Minute, logger: nil},
		{name: "withZeroTTL", ttl: 0, logger: apt.NewNoopLogger()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewBalanceCache(tt.ttl, tt.logger)
			if c == nil {
				t.Fatal("NewBalanceCache() returned nil")
			}
			if c.Count() != 0 {
				t.Errorf("new cache count = %d, want 0", c.Count())
			}
		})
	}
}

func TestBalanceCacheSetGet(t *testing.T) {
	c := NewBalanceCache(time.Minute, apt.NewNoopLogger())
	customerID := uuid.New()

	if _, ok := c.Get(customerID); ok {
		t.Error("empty cache should miss")
	}

	c.Set(customerID, owedStatement(3000))

	s, ok := c.Get(customerID)
	if !ok {
		t.Fatal("cache should hit after Set")
	}
	if s.Pending != 3000 {
		t.Errorf("pending = %d, want 3000", s.Pending)
	}
	if c.Count() != 1 {
		t.Errorf("count = %d, want 1", c.Count())
	}
}

func TestBalanceCacheTTLExpiry(t *testing.T) {
	c := NewBalanceCache(10*time.Millisecond, apt.NewNoopLogger())
	customerID := uuid.New()

	c.Set(customerID, owedStatement(3000))
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get(customerID); ok {
		t.Error("expired entry should miss")
	}
	if got := c.GetByBucket(BucketOwed); len(got) != 0 {
		t.Errorf("expired entry should not appear in buckets, got %d", len(got))
	}
}

func TestBalanceCacheBuckets(t *testing.T) {
	c := NewBalanceCache(time.Minute, apt.NewNoopLogger())

	owed := uuid.New()
	settled := uuid.New()
	credit := uuid.New()

	c.Set(owed, billing.Statement{Pending: 1500})
	c.Set(settled, billing.Statement{Pending: 0})
	c.Set(credit, billing.Statement{Pending: -500})

	if got := c.GetByBucket(BucketOwed); len(got) != 1 || got[0] != owed {
		t.Errorf("owed bucket = %v, want [%s]", got, owed)
	}
	if got := c.GetByBucket(BucketSettled); len(got) != 1 || got[0] != settled {
		t.Errorf("settled bucket = %v, want [%s]", got, settled)
	}
	if got := c.GetByBucket(BucketCredit); len(got) != 1 || got[0] != credit {
		t.Errorf("credit bucket = %v, want [%s]", got, credit)
	}
}

func TestBalanceCacheSetMovesBuckets(t *testing.T) {
	c := NewBalanceCache(time.Minute, apt.NewNoopLogger())
	customerID := uuid.New()

	c.Set(customerID, billing.Statement{Pending: 1500})
	c.Set(customerID, billing.Statement{Pending: 0})

	if got := c.GetByBucket(BucketOwed); len(got) != 0 {
		t.Errorf("owed bucket = %v, want empty after payment", got)
	}
	if got := c.GetByBucket(BucketSettled); len(got) != 1 {
		t.Errorf("settled bucket size = %d, want 1", len(got))
	}
	if c.Count() != 1 {
		t.Errorf("count = %d, want 1", c.Count())
	}
}

func TestBalanceCacheInvalidate(t *testing.T) {
	c := NewBalanceCache(time.Minute, apt.NewNoopLogger())
	customerID := uuid.New()
	otherID := uuid.New()

	c.Set(customerID, owedStatement(3000))
	c.Set(otherID, owedStatement(1000))

	c.Invalidate(customerID)

	if _, ok := c.Get(customerID); ok {
		t.Error("invalidated entry should miss")
	}
	if _, ok := c.Get(otherID); !ok {
		t.Error("other entries should survive")
	}
	if got := c.GetByBucket(BucketOwed); len(got) != 1 {
		t.Errorf("owed bucket size = %d, want 1", len(got))
	}

	// Invalidating a missing entry is a no-op
	c.Invalidate(uuid.New())
}

func TestBalanceCacheInvalidateAll(t *testing.T) {
	c := NewBalanceCache(time.Minute, apt.NewNoopLogger())

	c.Set(uuid.New(), owedStatement(3000))
	c.Set(uuid.New(), billing.Statement{Pending: -200})

	c.InvalidateAll()

	if c.Count() != 0 {
		t.Errorf("count after InvalidateAll = %d, want 0", c.Count())
	}
	if got := c.GetByBucket(BucketOwed); len(got) != 0 {
		t.Errorf("owed bucket after InvalidateAll = %v, want empty", got)
	}
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		name     string
		pending  int
		expected string
	}{
		{name: "owed", pending: 1, expected: BucketOwed},
		{name: "settled", pending: 0, expected: BucketSettled},
		{name: "credit", pending: -1, expected: BucketCredit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BucketFor(billing.Statement{Pending: tt.pending}); got != tt.expected {
				t.Errorf("BucketFor(%d) = %s, want %s", tt.pending, got, tt.expected)
			}
		})
	}
}
