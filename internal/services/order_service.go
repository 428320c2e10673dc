package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hanko-field/storefront/internal/filter"
	"github.com/hanko-field/storefront/internal/platform/persistence"
	"github.com/hanko-field/storefront/internal/state"
)

var (
	// ErrOrderInvalidInput indicates the caller supplied invalid data.
	ErrOrderInvalidInput = errors.New("order service: invalid input")
	// ErrOrderUnavailable indicates persisted orders could not be read or written.
	ErrOrderUnavailable = errors.New("order service: unavailable")
)

// OrderServiceDeps bundles collaborators required to construct an OrderService.
type OrderServiceDeps struct {
	Store       persistence.Store
	Locks       *KeyLocks
	Expiry      Expiry
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type orderService struct {
	effects effectRunner
	locks   *KeyLocks
	now     func() time.Time
	newID   func() string
	logger  func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into an OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Store == nil {
		return nil, errors.New("order service: store is required")
	}
	locks := deps.Locks
	if locks == nil {
		locks = NewKeyLocks()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger
	}
	return &orderService{
		effects: newEffectRunner(deps.Store, deps.Expiry),
		locks:   locks,
		now:     func() time.Time { return clock().UTC() },
		newID:   newID,
		logger:  logger,
	}, nil
}

func (s *orderService) List(ctx context.Context, userID string) ([]Order, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	orders, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return state.OrdersFor(orders, userID), nil
}

// Save appends a caller-built order, filling id, owner, timestamp and total when missing.
func (s *orderService) Save(ctx context.Context, userID string, order Order) (Order, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Order{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	if len(order.Items) == 0 {
		return Order{}, fmt.Errorf("%w: order has no items", ErrOrderInvalidInput)
	}
	for _, line := range order.Items {
		if line.Quantity <= 0 || line.Price < 0 {
			return Order{}, fmt.Errorf("%w: invalid line %d", ErrOrderInvalidInput, line.ID)
		}
	}
	order.UserID = userID
	if strings.TrimSpace(order.ID) == "" {
		order.ID = s.newID()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.now()
	}
	if order.TotalAmount == 0 {
		order.TotalAmount = filter.OrderTotal(order.Items)
	}

	key, _ := persistence.OrdersKey(userID)
	unlock := s.locks.Lock(key)
	defer unlock()

	orders, err := s.load(ctx, userID)
	if err != nil {
		return Order{}, err
	}
	_, effects := state.AddOrder(orders, order)
	if err := s.effects.apply(ctx, effects); err != nil {
		return Order{}, translateStoreError(err, ErrOrderUnavailable, nil)
	}
	s.logger(ctx, "order.saved", map[string]any{"userId": userID, "orderId": order.ID})
	return order, nil
}

func (s *orderService) Address(ctx context.Context, userID string) (Address, bool, error) {
	key, err := persistence.AddressKey(userID)
	if err != nil {
		return Address{}, false, fmt.Errorf("%w: %v", ErrOrderInvalidInput, err)
	}
	var address Address
	found, err := s.effects.load(ctx, key, &address)
	if err != nil {
		return Address{}, false, translateStoreError(err, ErrOrderUnavailable, nil)
	}
	return address, found, nil
}

func (s *orderService) SaveAddress(ctx context.Context, userID string, address Address) (Address, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Address{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	address = trimAddress(address)
	if address.IsZero() {
		return Address{}, fmt.Errorf("%w: address is empty", ErrOrderInvalidInput)
	}
	if err := s.effects.apply(ctx, state.SaveAddress(userID, address)); err != nil {
		return Address{}, translateStoreError(err, ErrOrderUnavailable, nil)
	}
	return address, nil
}

func (s *orderService) load(ctx context.Context, userID string) (state.Orders, error) {
	key, err := persistence.OrdersKey(userID)
	if err != nil {
		return state.Orders{}, fmt.Errorf("%w: %v", ErrOrderInvalidInput, err)
	}
	var orders []Order
	if _, err := s.effects.load(ctx, key, &orders); err != nil {
		return state.Orders{}, translateStoreError(err, ErrOrderUnavailable, nil)
	}
	return state.InitializeOrders(userID, orders), nil
}

func trimAddress(a Address) Address {
	a.Name = strings.TrimSpace(a.Name)
	a.Pincode = strings.TrimSpace(a.Pincode)
	a.PhoneNumber = strings.TrimSpace(a.PhoneNumber)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	return a
}
