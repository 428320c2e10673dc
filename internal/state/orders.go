package state

import (
	"strings"

	"github.com/hanko-field/storefront/internal/domain"
)

// Orders is the order history of one user.
type Orders struct {
	UserID string         `json:"userId"`
	Orders []domain.Order `json:"orders"`
}

// InitializeOrders binds userID to its persisted orders, defaulting to none.
func InitializeOrders(userID string, orders []domain.Order) Orders {
	if orders == nil {
		orders = []domain.Order{}
	}
	return Orders{UserID: strings.TrimSpace(userID), Orders: cloneOrders(orders)}
}

// AddOrder appends order and persists the list under the order's own user id.
func AddOrder(o Orders, order domain.Order) (Orders, []Effect) {
	o.Orders = append(cloneOrders(o.Orders), order)
	if strings.TrimSpace(order.UserID) == "" {
		return o, nil
	}
	return o, []Effect{save(ordersKey(order.UserID), o.Orders)}
}

// OrdersFor returns the orders placed by userID.
func OrdersFor(o Orders, userID string) []domain.Order {
	out := make([]domain.Order, 0, len(o.Orders))
	for _, order := range o.Orders {
		if order.UserID == userID {
			out = append(out, order)
		}
	}
	return out
}

// SaveAddress stores the delivery address of userID.
func SaveAddress(userID string, address domain.Address) []Effect {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil
	}
	return []Effect{save(addressKey(userID), address)}
}
