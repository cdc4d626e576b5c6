package tiffin

import (
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/tiffinclub/tiffin/internal/billing"
)

// Balance buckets used to index cached statements for dashboard queries.
const (
	BucketOwed    = "owed"
	BucketSettled = "settled"
	BucketCredit  = "credit"
)

// DefaultBalanceTTL bounds how long a cached statement is served before the
// engine recomputes it from the ledger.
const DefaultBalanceTTL = 5 * time.Minute

type balanceEntry struct {
	statement  billing.Statement
	computedAt time.Time
}

// BalanceCache maintains an in-memory cache of computed billing statements,
// indexed by balance bucket for efficient dashboard queries. Entries expire
// after a TTL and are invalidated eagerly when ledger events arrive.
type BalanceCache struct {
	mu sync.RWMutex
	// statements indexed by customer_id
	statements map[uuid.UUID]balanceEntry
	// index by bucket (owed/settled/credit) -> customer_id
	byBucket map[string][]uuid.UUID

	ttl    time.Duration
	logger apt.Logger
}

// NewBalanceCache creates a new balance cache. A non-positive ttl falls back
// to DefaultBalanceTTL.
func NewBalanceCache(ttl time.Duration, logger apt.Logger) *BalanceCache {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if ttl <= 0 {
		ttl = DefaultBalanceTTL
	}
	return &BalanceCache{
		statements: make(map[uuid.UUID]balanceEntry),
		byBucket:   make(map[string][]uuid.UUID),
		ttl:        ttl,
		logger:     logger,
	}
}

// BucketFor classifies a statement by its signed pending balance.
func BucketFor(s billing.Statement) string {
	switch {
	case s.Pending > 0:
		return BucketOwed
	case s.Pending < 0:
		return BucketCredit
	default:
		return BucketSettled
	}
}

// Set caches a freshly computed statement for a customer.
func (c *BalanceCache) Set(customerID uuid.UUID, s billing.Statement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(customerID, s, time.Now())
}

func (c *BalanceCache) setLocked(customerID uuid.UUID, s billing.Statement, now time.Time) {
	if old, exists := c.statements[customerID]; exists {
		c.removeFromIndexStr(c.byBucket, BucketFor(old.statement), customerID)
	}

	c.statements[customerID] = balanceEntry{statement: s, computedAt: now}
	c.addToIndexStr(c.byBucket, BucketFor(s), customerID)
}

// Get retrieves a cached statement. The second return reports whether a
// fresh entry was found; expired entries are treated as absent.
func (c *BalanceCache) Get(customerID uuid.UUID) (billing.Statement, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.statements[customerID]
	if !ok {
		return billing.Statement{}, false
	}
	if time.Since(entry.computedAt) > c.ttl {
		return billing.Statement{}, false
	}
	return entry.statement, true
}

// Invalidate drops the cached statement for a customer so the next read
// recomputes it. Used by the event subscriber when payments or attendance
// change.
func (c *BalanceCache) Invalidate(customerID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.statements[customerID]
	if !ok {
		return
	}

	c.removeFromIndexStr(c.byBucket, BucketFor(entry.statement), customerID)
	delete(c.statements, customerID)
}

// InvalidateAll clears the cache. Used when the vendor's price list changes,
// which affects every customer's statement.
func (c *BalanceCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.statements)
	c.statements = make(map[uuid.UUID]balanceEntry)
	c.byBucket = make(map[string][]uuid.UUID)
	c.logger.Info("balance cache cleared", "count", n)
}

// GetByBucket returns the customer IDs whose cached statements fall in the
// given bucket. Expired entries are skipped.
func (c *BalanceCache) GetByBucket(bucket string) []uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := c.byBucket[bucket]
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		entry, ok := c.statements[id]
		if !ok || time.Since(entry.computedAt) > c.ttl {
			continue
		}
		result = append(result, id)
	}
	return result
}

// Count returns the number of cached statements, expired entries included.
func (c *BalanceCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.statements)
}

func (c *BalanceCache) addToIndexStr(index map[string][]uuid.UUID, key string, customerID uuid.UUID) {
	index[key] = append(index[key], customerID)
}

func (c *BalanceCache) removeFromIndexStr(index map[string][]uuid.UUID, key string, customerID uuid.UUID) {
	ids := index[key]
	for i, id := range ids {
		if id == customerID {
			index[key] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}
