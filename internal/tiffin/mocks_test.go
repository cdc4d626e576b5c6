package tiffin

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// MockCustomerRepo is a test mock for CustomerRepo
type MockCustomerRepo struct {
	customers  map[uuid.UUID]*Customer
	CreateFunc func(ctx context.Context, c *Customer) error
	GetFunc    func(ctx context.Context, id uuid.UUID) (*Customer, error)
	ListFunc   func(ctx context.Context, filter CustomerFilter) ([]*Customer, error)
	SaveFunc   func(ctx context.Context, c *Customer) error
	DeleteFunc func(ctx context.Context, id uuid.UUID) error
}

func NewMockCustomerRepo() *MockCustomerRepo {
	return &MockCustomerRepo{
		customers: make(map[uuid.UUID]*Customer),
	}
}

func (m *MockCustomerRepo) Create(ctx context.Context, c *Customer) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	m.customers[c.ID] = c
	return nil
}

func (m *MockCustomerRepo) Get(ctx context.Context, id uuid.UUID) (*Customer, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	c, exists := m.customers[id]
	if !exists {
		return nil, errors.New("customer not found")
	}
	return c, nil
}

func (m *MockCustomerRepo) List(ctx context.Context, filter CustomerFilter) ([]*Customer, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	result := make([]*Customer, 0, len(m.customers))
	for _, c := range m.customers {
		if filter.Active != nil && c.Active != *filter.Active {
			continue
		}
		if filter.CustomerType != nil && c.CustomerType != *filter.CustomerType {
			continue
		}
		if filter.Archived != nil && c.Archived() != *filter.Archived {
			continue
		}
		result = append(result, c)
	}
	return result, nil
}

func (m *MockCustomerRepo) Save(ctx context.Context, c *Customer) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, c)
	}
	if _, exists := m.customers[c.ID]; !exists {
		return errors.New("customer not found")
	}
	m.customers[c.ID] = c
	return nil
}

func (m *MockCustomerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	if _, exists := m.customers[id]; !exists {
		return errors.New("customer not found")
	}
	delete(m.customers, id)
	return nil
}

// AddCustomer is a helper to seed the mock repository
func (m *MockCustomerRepo) AddCustomer(c *Customer) {
	m.customers[c.ID] = c
}

// MockSubscriptionRepo is a test mock for SubscriptionRepo
type MockSubscriptionRepo struct {
	subscriptions map[uuid.UUID]*Subscription
	CreateFunc    func(ctx context.Context, s *Subscription) error
	SaveFunc      func(ctx context.Context, s *Subscription) error
}

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{
		subscriptions: make(map[uuid.UUID]*Subscription),
	}
}

func (m *MockSubscriptionRepo) Create(ctx context.Context, s *Subscription) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, s)
	}
	m.subscriptions[s.ID] = s
	return nil
}

func (m *MockSubscriptionRepo) Get(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	s, exists := m.subscriptions[id]
	if !exists {
		return nil, errors.New("subscription not found")
	}
	return s, nil
}

func (m *MockSubscriptionRepo) FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*Subscription, error) {
	for _, s := range m.subscriptions {
		if s.CustomerID == customerID && s.Status == SubscriptionActive {
			return s, nil
		}
	}
	return nil, nil
}

func (m *MockSubscriptionRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Subscription, error) {
	result := make([]*Subscription, 0)
	for _, s := range m.subscriptions {
		if s.CustomerID == customerID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *MockSubscriptionRepo) Save(ctx context.Context, s *Subscription) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, s)
	}
	if _, exists := m.subscriptions[s.ID]; !exists {
		return errors.New("subscription not found")
	}
	m.subscriptions[s.ID] = s
	return nil
}

func (m *MockSubscriptionRepo) DeleteByCustomer(ctx context.Context, customerID uuid.UUID) error {
	for id, s := range m.subscriptions {
		if s.CustomerID == customerID {
			delete(m.subscriptions, id)
		}
	}
	return nil
}

// AddSubscription is a helper to seed the mock repository
func (m *MockSubscriptionRepo) AddSubscription(s *Subscription) {
	m.subscriptions[s.ID] = s
}

// MockAttendanceRepo is a test mock for AttendanceRepo
type MockAttendanceRepo struct {
	marks      map[string]*Attendance
	UpsertFunc func(ctx context.Context, a *Attendance) error
}

func NewMockAttendanceRepo() *MockAttendanceRepo {
	return &MockAttendanceRepo{
		marks: make(map[string]*Attendance),
	}
}

func attendanceKey(customerID uuid.UUID, day time.Time) string {
	return customerID.String() + "/" + DayOf(day).Format(time.DateOnly)
}

func (m *MockAttendanceRepo) Upsert(ctx context.Context, a *Attendance) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, a)
	}
	m.marks[attendanceKey(a.CustomerID, a.Date)] = a
	return nil
}

func (m *MockAttendanceRepo) Get(ctx context.Context, customerID uuid.UUID, day time.Time) (*Attendance, error) {
	a, exists := m.marks[attendanceKey(customerID, day)]
	if !exists {
		return nil, errors.New("attendance not found")
	}
	return a, nil
}

func (m *MockAttendanceRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, r DateRange) ([]*Attendance, error) {
	result := make([]*Attendance, 0)
	for _, a := range m.marks {
		if a.CustomerID != customerID {
			continue
		}
		if !r.Contains(a.Date) {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

func (m *MockAttendanceRepo) DeleteByCustomer(ctx context.Context, customerID uuid.UUID) error {
	for key, a := range m.marks {
		if a.CustomerID == customerID {
			delete(m.marks, key)
		}
	}
	return nil
}

// AddMark is a helper to seed the mock repository
func (m *MockAttendanceRepo) AddMark(a *Attendance) {
	m.marks[attendanceKey(a.CustomerID, a.Date)] = a
}

// MockPaymentRepo is a test mock for PaymentRepo
type MockPaymentRepo struct {
	payments   map[uuid.UUID]*Payment
	CreateFunc func(ctx context.Context, p *Payment) error
}

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{
		payments: make(map[uuid.UUID]*Payment),
	}
}

func (m *MockPaymentRepo) Create(ctx context.Context, p *Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	m.payments[p.ID] = p
	return nil
}

func (m *MockPaymentRepo) Get(ctx context.Context, id uuid.UUID) (*Payment, error) {
	p, exists := m.payments[id]
	if !exists {
		return nil, errors.New("payment not found")
	}
	return p, nil
}

func (m *MockPaymentRepo) List(ctx context.Context, filter PaymentFilter) ([]*Payment, error) {
	result := make([]*Payment, 0)
	for _, p := range m.payments {
		if filter.CustomerID != nil && p.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if !filter.Range.Contains(DayOf(p.PaymentDate)) {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (m *MockPaymentRepo) DeleteByCustomer(ctx context.Context, customerID uuid.UUID) error {
	for id, p := range m.payments {
		if p.CustomerID == customerID {
			delete(m.payments, id)
		}
	}
	return nil
}

// AddPayment is a helper to seed the mock repository
func (m *MockPaymentRepo) AddPayment(p *Payment) {
	m.payments[p.ID] = p
}

// MockPriceListRepo is a test mock for PriceListRepo
type MockPriceListRepo struct {
	priceList *PriceList
	GetFunc   func(ctx context.Context) (*PriceList, error)
}

func NewMockPriceListRepo() *MockPriceListRepo {
	return &MockPriceListRepo{}
}

func (m *MockPriceListRepo) Get(ctx context.Context) (*PriceList, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	if m.priceList == nil {
		return DefaultPriceList(), nil
	}
	return m.priceList, nil
}

func (m *MockPriceListRepo) Save(ctx context.Context, pl *PriceList) error {
	m.priceList = pl
	return nil
}

// MockPublisher is a test mock for events.Publisher
type MockPublisher struct {
	PublishedEvents []PublishedEvent
	PublishFunc     func(ctx context.Context, topic string, data []byte) error
}

type PublishedEvent struct {
	Topic string
	Data  []byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		PublishedEvents: make([]PublishedEvent, 0),
	}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, data []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, data)
	}
	m.PublishedEvents = append(m.PublishedEvents, PublishedEvent{Topic: topic, Data: data})
	return nil
}
