package domain

import "time"

// Status describes the progress of an asynchronous remote operation.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Product is a catalogue entry as served by the remote product API.
type Product struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Price       float64        `json:"price"`
	Image       string         `json:"image"`
	Category    string         `json:"category"`
	Description string         `json:"description,omitempty"`
	Rating      *ProductRating `json:"rating,omitempty"`
}

// ProductRating is the aggregate rating bundled with some catalogue payloads.
type ProductRating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// CartItem is a line in a user's cart. The identifier is the numeric form of the product id.
type CartItem struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image"`
}

// WishlistItem is a saved product reference. Identifiers are unique within a wishlist.
type WishlistItem struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

// Review belongs to exactly one product.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderLine is a decoupled snapshot of a cart item taken at checkout.
type OrderLine struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Order is append-only once created.
type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Items       []OrderLine `json:"items"`
	TotalAmount float64     `json:"totalAmount"`
	Address     Address     `json:"address"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Address is the delivery address captured for a user.
type Address struct {
	Name        string `json:"name"`
	Pincode     string `json:"pincode"`
	PhoneNumber string `json:"phoneNumber"`
	City        string `json:"city"`
	State       string `json:"state"`
}

// IsZero reports whether no address field has been set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// User mirrors the remote user record. Password is only populated on records fetched for
// credential comparison and is never persisted or returned by the service.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	IsAdmin      bool   `json:"isAdmin,omitempty"`
}

// Public returns a copy of the user without credential material.
func (u User) Public() User {
	u.Password = ""
	return u
}

// Credentials carries login or signup input.
type Credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
