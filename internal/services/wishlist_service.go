package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hanko-field/storefront/internal/filter"
	"github.com/hanko-field/storefront/internal/platform/persistence"
	"github.com/hanko-field/storefront/internal/state"
)

var (
	// ErrWishlistInvalidInput indicates the caller supplied invalid data.
	ErrWishlistInvalidInput = errors.New("wishlist service: invalid input")
	// ErrWishlistNotFound indicates the referenced product is not in the catalogue.
	ErrWishlistNotFound = errors.New("wishlist service: product not found")
	// ErrWishlistUnavailable indicates the persisted wishlist could not be read or written.
	ErrWishlistUnavailable = errors.New("wishlist service: unavailable")
)

// WishlistServiceDeps bundles collaborators required to construct a WishlistService.
type WishlistServiceDeps struct {
	Store    persistence.Store
	Products ProductLookup
	Locks    *KeyLocks
	Expiry   Expiry
	Logger   func(context.Context, string, map[string]any)
}

type wishlistService struct {
	effects  effectRunner
	products ProductLookup
	locks    *KeyLocks
	logger   func(context.Context, string, map[string]any)
}

// NewWishlistService wires dependencies into a WishlistService implementation.
func NewWishlistService(deps WishlistServiceDeps) (WishlistService, error) {
	if deps.Store == nil {
		return nil, errors.New("wishlist service: store is required")
	}
	if deps.Products == nil {
		return nil, errors.New("wishlist service: product lookup is required")
	}
	locks := deps.Locks
	if locks == nil {
		locks = NewKeyLocks()
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger
	}
	return &wishlistService{
		effects:  newEffectRunner(deps.Store, deps.Expiry),
		products: deps.Products,
		locks:    locks,
		logger:   logger,
	}, nil
}

func (s *wishlistService) Get(ctx context.Context, userID string) (state.Wishlist, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return state.BindWishlist("", nil), nil
	}
	return s.load(ctx, userID)
}

func (s *wishlistService) Add(ctx context.Context, cmd AddToWishlistCommand) (state.Wishlist, error) {
	item, err := s.resolveItem(ctx, cmd)
	if err != nil {
		return state.Wishlist{}, err
	}
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return state.BindWishlist("", nil), nil
	}
	return s.mutate(ctx, userID, "wishlist.add", func(w state.Wishlist) (state.Wishlist, []state.Effect) {
		return state.AddToWishlist(w, item)
	})
}

func (s *wishlistService) Remove(ctx context.Context, userID string, itemID int64) (state.Wishlist, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return state.BindWishlist("", nil), nil
	}
	return s.mutate(ctx, userID, "wishlist.remove", func(w state.Wishlist) (state.Wishlist, []state.Effect) {
		return state.RemoveFromWishlist(w, itemID)
	})
}

func (s *wishlistService) Status(ctx context.Context, userID string) (map[int64]bool, error) {
	wishlist, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return filter.WishlistStatus(wishlist.Items), nil
}

func (s *wishlistService) mutate(ctx context.Context, userID, event string, transition func(state.Wishlist) (state.Wishlist, []state.Effect)) (state.Wishlist, error) {
	key, _ := persistence.WishlistKey(userID)
	unlock := s.locks.Lock(key)
	defer unlock()

	wishlist, err := s.load(ctx, userID)
	if err != nil {
		return state.Wishlist{}, err
	}
	next, effects := transition(wishlist)
	if err := s.effects.apply(ctx, effects); err != nil {
		return state.Wishlist{}, translateStoreError(err, ErrWishlistUnavailable, nil)
	}
	if len(effects) > 0 {
		s.logger(ctx, event, map[string]any{"userId": userID, "items": len(next.Items)})
	}
	return next, nil
}

func (s *wishlistService) load(ctx context.Context, userID string) (state.Wishlist, error) {
	key, err := persistence.WishlistKey(userID)
	if err != nil {
		return state.Wishlist{}, fmt.Errorf("%w: %v", ErrWishlistInvalidInput, err)
	}
	var items []WishlistItem
	if _, err := s.effects.load(ctx, key, &items); err != nil {
		return state.Wishlist{}, translateStoreError(err, ErrWishlistUnavailable, nil)
	}
	return state.BindWishlist(userID, items), nil
}

func (s *wishlistService) resolveItem(ctx context.Context, cmd AddToWishlistCommand) (WishlistItem, error) {
	if productID := strings.TrimSpace(cmd.ProductID); productID != "" {
		product, ok := s.products.Find(ctx, productID)
		if !ok {
			return WishlistItem{}, fmt.Errorf("%w: %s", ErrWishlistNotFound, productID)
		}
		item, err := state.WishlistItemFromProduct(product)
		if err != nil {
			return WishlistItem{}, fmt.Errorf("%w: %v", ErrWishlistInvalidInput, err)
		}
		return item, nil
	}
	item := cmd.Item
	item.Name = strings.TrimSpace(item.Name)
	if item.ID <= 0 {
		return WishlistItem{}, fmt.Errorf("%w: item id must be positive", ErrWishlistInvalidInput)
	}
	if item.Name == "" {
		return WishlistItem{}, fmt.Errorf("%w: item name is required", ErrWishlistInvalidInput)
	}
	if item.Price < 0 {
		return WishlistItem{}, fmt.Errorf("%w: item price must not be negative", ErrWishlistInvalidInput)
	}
	return item, nil
}
