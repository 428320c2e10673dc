package state

import (
	"strings"

	"github.com/hanko-field/storefront/internal/domain"
)

// Wishlist is a user's set of saved products.
type Wishlist struct {
	UserID string                `json:"userId"`
	Items  []domain.WishlistItem `json:"items"`
}

// Bound reports whether a user identity is attached.
func (w Wishlist) Bound() bool { return w.UserID != "" }

// BindWishlist attaches userID and its persisted items. Duplicate ids in the loaded data
// are collapsed to their first occurrence.
func BindWishlist(userID string, items []domain.WishlistItem) Wishlist {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Wishlist{Items: []domain.WishlistItem{}}
	}
	seen := make(map[int64]struct{}, len(items))
	unique := make([]domain.WishlistItem, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		unique = append(unique, item)
	}
	return Wishlist{UserID: userID, Items: unique}
}

// AddToWishlist adds item unless its id is already present.
func AddToWishlist(w Wishlist, item domain.WishlistItem) (Wishlist, []Effect) {
	if !w.Bound() || w.contains(item.ID) {
		return w, nil
	}
	items := make([]domain.WishlistItem, len(w.Items), len(w.Items)+1)
	copy(items, w.Items)
	items = append(items, item)
	next := Wishlist{UserID: w.UserID, Items: items}
	return next, []Effect{save(wishlistKey(w.UserID), next.Items)}
}

// RemoveFromWishlist drops the item with itemID. Unknown ids are a no-op.
func RemoveFromWishlist(w Wishlist, itemID int64) (Wishlist, []Effect) {
	if !w.Bound() || !w.contains(itemID) {
		return w, nil
	}
	items := make([]domain.WishlistItem, 0, len(w.Items)-1)
	for _, item := range w.Items {
		if item.ID != itemID {
			items = append(items, item)
		}
	}
	next := Wishlist{UserID: w.UserID, Items: items}
	return next, []Effect{save(wishlistKey(w.UserID), next.Items)}
}

// WishlistItemFromProduct builds the wishlist entry saved from a product listing.
func WishlistItemFromProduct(p domain.Product) (domain.WishlistItem, error) {
	item, err := CartItemFromProduct(p)
	if err != nil {
		return domain.WishlistItem{}, err
	}
	return domain.WishlistItem{ID: item.ID, Name: item.Name, Price: item.Price, Image: item.Image}, nil
}

func (w Wishlist) contains(id int64) bool {
	for _, item := range w.Items {
		if item.ID == id {
			return true
		}
	}
	return false
}
