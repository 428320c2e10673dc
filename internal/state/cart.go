package state

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hanko-field/storefront/internal/domain"
	"github.com/hanko-field/storefront/internal/filter"
)

// ErrNonNumericProductID is returned when a product id cannot become a cart item id.
var ErrNonNumericProductID = errors.New("state: product id is not numeric")

// MaxLineQuantity is the largest quantity a single cart entry can hold.
const MaxLineQuantity = 999

// Cart is a user's cart. Totals are always derived from Items.
type Cart struct {
	UserID      string            `json:"userId"`
	Items       []domain.CartItem `json:"items"`
	TotalAmount float64           `json:"totalAmount"`
	TotalItems  int               `json:"totalItems"`
}

// Bound reports whether a user identity is attached.
func (c Cart) Bound() bool { return c.UserID != "" }

// BindCart attaches userID and the items loaded from its persisted key. An empty
// userID yields an unbound, empty cart.
func BindCart(userID string, items []domain.CartItem) Cart {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return withTotals(Cart{Items: []domain.CartItem{}})
	}
	return withTotals(Cart{UserID: userID, Items: cloneCartItems(items)})
}

// AddToCart increments an existing entry by the incoming quantity (at least 1), or appends
// a new entry with quantity 1 whatever quantity was requested. Quantities saturate at
// MaxLineQuantity.
func AddToCart(c Cart, item domain.CartItem) (Cart, []Effect) {
	if !c.Bound() {
		return c, nil
	}
	items := cloneCartItems(c.Items)
	found := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity = addQuantity(items[i].Quantity, item.Quantity)
			found = true
			break
		}
	}
	if !found {
		item.Quantity = 1
		items = append(items, item)
	}
	next := withTotals(Cart{UserID: c.UserID, Items: items})
	return next, []Effect{save(cartKey(c.UserID), next.Items)}
}

// RemoveFromCart decrements the entry, dropping it when its quantity is 1. Unknown ids are a no-op.
func RemoveFromCart(c Cart, itemID int64) (Cart, []Effect) {
	if !c.Bound() {
		return c, nil
	}
	idx := -1
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return c, nil
	}

	items := cloneCartItems(c.Items)
	if items[idx].Quantity <= 1 {
		items = append(items[:idx], items[idx+1:]...)
	} else {
		items[idx].Quantity--
	}
	next := withTotals(Cart{UserID: c.UserID, Items: items})
	return next, []Effect{save(cartKey(c.UserID), next.Items)}
}

// ClearCart empties the cart.
func ClearCart(c Cart) (Cart, []Effect) {
	if !c.Bound() {
		return c, nil
	}
	next := withTotals(Cart{UserID: c.UserID, Items: []domain.CartItem{}})
	return next, []Effect{save(cartKey(c.UserID), next.Items)}
}

// CheckoutResult is the outcome of Checkout.
type CheckoutResult struct {
	Order  domain.Order
	Orders []domain.Order
}

// Checkout snapshots the cart into a new order appended to orders. The cart itself is left
// unchanged and saved again. ok is false when no user is bound.
func Checkout(c Cart, orders []domain.Order, address domain.Address, orderID string, now time.Time) (result CheckoutResult, effects []Effect, ok bool) {
	if !c.Bound() {
		return CheckoutResult{}, nil, false
	}
	lines := make([]domain.OrderLine, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, domain.OrderLine{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}
	order := domain.Order{
		ID:          orderID,
		UserID:      c.UserID,
		Items:       lines,
		TotalAmount: c.TotalAmount,
		Address:     address,
		CreatedAt:   now.UTC(),
	}
	next := append(cloneOrders(orders), order)
	return CheckoutResult{Order: order, Orders: next}, []Effect{
		save(ordersKey(c.UserID), next),
		save(cartKey(c.UserID), cloneCartItems(c.Items)),
	}, true
}

// SaveOrder appends a caller-built order to the bound user's order list.
func SaveOrder(c Cart, orders []domain.Order, order domain.Order) ([]domain.Order, []Effect) {
	if !c.Bound() {
		return orders, nil
	}
	next := append(cloneOrders(orders), order)
	return next, []Effect{save(ordersKey(c.UserID), next)}
}

// CartItemFromProduct builds the cart entry added from a product listing.
func CartItemFromProduct(p domain.Product) (domain.CartItem, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(p.ID), 10, 64)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("%w: %q", ErrNonNumericProductID, p.ID)
	}
	return domain.CartItem{
		ID:       id,
		Name:     p.Title,
		Price:    p.Price,
		Image:    p.Image,
		Quantity: 1,
	}, nil
}

func addQuantity(current, incoming int) int {
	incoming = max(incoming, 1)
	if current >= MaxLineQuantity || incoming > MaxLineQuantity-current {
		return MaxLineQuantity
	}
	return current + incoming
}

func withTotals(c Cart) Cart {
	c.TotalAmount, c.TotalItems = filter.CartTotals(c.Items)
	return c
}

func cloneCartItems(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	return out
}

func cloneOrders(orders []domain.Order) []domain.Order {
	out := make([]domain.Order, len(orders))
	copy(out, orders)
	return out
}
