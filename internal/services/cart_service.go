package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hanko-field/storefront/internal/platform/persistence"
	"github.com/hanko-field/storefront/internal/state"
)

var (
	// ErrCartInvalidInput indicates the caller supplied invalid data.
	ErrCartInvalidInput = errors.New("cart service: invalid input")
	// ErrCartNotFound indicates the referenced product is not in the catalogue.
	ErrCartNotFound = errors.New("cart service: product not found")
	// ErrCartUnavailable indicates the persisted cart could not be read or written.
	ErrCartUnavailable = errors.New("cart service: unavailable")
)

// ProductLookup resolves catalogue products by id.
type ProductLookup interface {
	Find(ctx context.Context, productID string) (Product, bool)
}

// CartServiceDeps bundles collaborators required to construct a CartService.
type CartServiceDeps struct {
	Store       persistence.Store
	Products    ProductLookup
	Locks       *KeyLocks
	Expiry      Expiry
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type cartService struct {
	effects  effectRunner
	products ProductLookup
	locks    *KeyLocks
	now      func() time.Time
	newID    func() string
	logger   func(context.Context, string, map[string]any)
}

// NewCartService wires dependencies into a CartService implementation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Store == nil {
		return nil, errors.New("cart service: store is required")
	}
	if deps.Products == nil {
		return nil, errors.New("cart service: product lookup is required")
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
	return &cartService{
		effects:  newEffectRunner(deps.Store, deps.Expiry),
		products: deps.Products,
		locks:    locks,
		now:      func() time.Time { return clock().UTC() },
		newID:    newID,
		logger:   logger,
	}, nil
}

func (s *cartService) Get(ctx context.Context, userID string) (state.Cart, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return state.BindCart("", nil), nil
	}
	return s.load(ctx, userID)
}

func (s *cartService) Add(ctx context.Context, cmd AddToCartCommand) (state.Cart, error) {
	userID := strings.TrimSpace(cmd.UserID)
	item, err := s.resolveItem(ctx, cmd)
	if err != nil {
		return state.Cart{}, err
	}
	if userID == "" {
		return state.BindCart("", nil), nil
	}

	return s.mutate(ctx, userID, "cart.add", func(c state.Cart) (state.Cart, []state.Effect) {
		return state.AddToCart(c, item)
	})
}

func (s *cartService) Remove(ctx context.Context, userID string, itemID int64) (state.Cart, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return state.BindCart("", nil), nil
	}
	return s.mutate(ctx, userID, "cart.remove", func(c state.Cart) (state.Cart, []state.Effect) {
		return state.RemoveFromCart(c, itemID)
	})
}

func (s *cartService) Clear(ctx context.Context, userID string) (state.Cart, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return state.BindCart("", nil), nil
	}
	return s.mutate(ctx, userID, "cart.clear", func(c state.Cart) (state.Cart, []state.Effect) {
		return state.ClearCart(c)
	})
}

func (s *cartService) Checkout(ctx context.Context, userID string) (Order, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Order{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}
	cartKey, _ := persistence.CartKey(userID)
	ordersKey, _ := persistence.OrdersKey(userID)
	addressKey, _ := persistence.AddressKey(userID)

	// Lock order is cart then orders; OrderService only takes the orders key.
	unlockCart := s.locks.Lock(cartKey)
	defer unlockCart()
	unlockOrders := s.locks.Lock(ordersKey)
	defer unlockOrders()

	cart, err := s.load(ctx, userID)
	if err != nil {
		return Order{}, err
	}

	var orders []Order
	if _, err := s.effects.load(ctx, ordersKey, &orders); err != nil {
		return Order{}, translateStoreError(err, ErrCartUnavailable, nil)
	}
	var address Address
	if _, err := s.effects.load(ctx, addressKey, &address); err != nil {
		return Order{}, translateStoreError(err, ErrCartUnavailable, nil)
	}

	result, effects, ok := state.Checkout(cart, orders, address, s.newID(), s.now())
	if !ok {
		return Order{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}
	if err := s.effects.apply(ctx, effects); err != nil {
		return Order{}, translateStoreError(err, ErrCartUnavailable, nil)
	}
	s.logger(ctx, "cart.checkout", map[string]any{
		"userId":      userID,
		"orderId":     result.Order.ID,
		"totalAmount": result.Order.TotalAmount,
		"lines":       len(result.Order.Items),
	})
	return result.Order, nil
}

func (s *cartService) mutate(ctx context.Context, userID, event string, transition func(state.Cart) (state.Cart, []state.Effect)) (state.Cart, error) {
	key, _ := persistence.CartKey(userID)
	unlock := s.locks.Lock(key)
	defer unlock()

	cart, err := s.load(ctx, userID)
	if err != nil {
		return state.Cart{}, err
	}
	next, effects := transition(cart)
	if err := s.effects.apply(ctx, effects); err != nil {
		return state.Cart{}, translateStoreError(err, ErrCartUnavailable, nil)
	}
	if len(effects) > 0 {
		s.logger(ctx, event, map[string]any{
			"userId":     userID,
			"totalItems": next.TotalItems,
		})
	}
	return next, nil
}

func (s *cartService) load(ctx context.Context, userID string) (state.Cart, error) {
	key, err := persistence.CartKey(userID)
	if err != nil {
		return state.Cart{}, fmt.Errorf("%w: %v", ErrCartInvalidInput, err)
	}
	var items []CartItem
	if _, err := s.effects.load(ctx, key, &items); err != nil {
		return state.Cart{}, translateStoreError(err, ErrCartUnavailable, nil)
	}
	return state.BindCart(userID, items), nil
}

func (s *cartService) resolveItem(ctx context.Context, cmd AddToCartCommand) (CartItem, error) {
	if productID := strings.TrimSpace(cmd.ProductID); productID != "" {
		product, ok := s.products.Find(ctx, productID)
		if !ok {
			return CartItem{}, fmt.Errorf("%w: %s", ErrCartNotFound, productID)
		}
		item, err := state.CartItemFromProduct(product)
		if err != nil {
			return CartItem{}, fmt.Errorf("%w: %v", ErrCartInvalidInput, err)
		}
		switch {
		case cmd.Item.Quantity > state.MaxLineQuantity:
			return CartItem{}, fmt.Errorf("%w: quantity must not exceed %d", ErrCartInvalidInput, state.MaxLineQuantity)
		case cmd.Item.Quantity > 0:
			item.Quantity = cmd.Item.Quantity
		}
		return item, nil
	}

	item := cmd.Item
	item.Name = strings.TrimSpace(item.Name)
	switch {
	case item.ID <= 0:
		return CartItem{}, fmt.Errorf("%w: item id must be positive", ErrCartInvalidInput)
	case item.Name == "":
		return CartItem{}, fmt.Errorf("%w: item name is required", ErrCartInvalidInput)
	case item.Price < 0 || math.IsNaN(item.Price) || math.IsInf(item.Price, 0):
		return CartItem{}, fmt.Errorf("%w: item price must be a non-negative number", ErrCartInvalidInput)
	case item.Quantity < 0:
		return CartItem{}, fmt.Errorf("%w: quantity must not be negative", ErrCartInvalidInput)
	case item.Quantity > state.MaxLineQuantity:
		return CartItem{}, fmt.Errorf("%w: quantity must not exceed %d", ErrCartInvalidInput, state.MaxLineQuantity)
	}
	return item, nil
}
