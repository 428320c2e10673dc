package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hanko-field/storefront/internal/domain"
)

var (
	// ErrDecode matches every DecodeError.
	ErrDecode = errors.New("catalog: decode error")
	// ErrRemote matches every RemoteError.
	ErrRemote = errors.New("catalog: remote error")
)

// DecodeError reports an inbound payload that does not satisfy its schema.
type DecodeError struct {
	Resource string
	Field    string
	Reason   string
	Err      error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString("catalog: decode ")
	b.WriteString(e.Resource)
	if e.Field != "" {
		b.WriteString(".")
		b.WriteString(e.Field)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDecode) match any DecodeError.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// RemoteError reports a failed call to the remote API. Message carries the server-supplied
// body when one was returned.
type RemoteError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return fmt.Sprintf("catalog: %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("catalog: %s failed with status %d", e.Op, e.Status)
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrRemote) match any RemoteError.
func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

// flexibleID accepts either a JSON string or a JSON number.
type flexibleID string

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number")
	}
	*id = flexibleID(n.String())
	return nil
}

type ratingPayload struct {
	Rate  *float64 `json:"rate"`
	Count *int     `json:"count"`
}

type productPayload struct {
	ID          flexibleID     `json:"id"`
	Title       *string        `json:"title"`
	Price       *float64       `json:"price"`
	Image       string         `json:"image"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Rating      *ratingPayload `json:"rating"`
}

func (p productPayload) validate() error {
	if strings.TrimSpace(string(p.ID)) == "" {
		return &DecodeError{Resource: "product", Field: "id", Reason: "is required"}
	}
	if p.Title == nil || strings.TrimSpace(*p.Title) == "" {
		return &DecodeError{Resource: "product", Field: "title", Reason: "is required"}
	}
	if p.Price == nil {
		return &DecodeError{Resource: "product", Field: "price", Reason: "is required"}
	}
	if math.IsNaN(*p.Price) || math.IsInf(*p.Price, 0) || *p.Price < 0 {
		return &DecodeError{Resource: "product", Field: "price", Reason: "must be a non-negative number"}
	}
	if p.Rating != nil && p.Rating.Rate != nil {
		if rate := *p.Rating.Rate; math.IsNaN(rate) || rate < 0 || rate > 5 {
			return &DecodeError{Resource: "product", Field: "rating.rate", Reason: "must be between 0 and 5"}
		}
	}
	return nil
}

func (p productPayload) toDomain() domain.Product {
	product := domain.Product{
		ID:          string(p.ID),
		Title:       strings.TrimSpace(*p.Title),
		Price:       *p.Price,
		Image:       strings.TrimSpace(p.Image),
		Category:    strings.TrimSpace(p.Category),
		Description: p.Description,
	}
	if p.Rating != nil && p.Rating.Rate != nil {
		rating := &domain.ProductRating{Rate: *p.Rating.Rate}
		if p.Rating.Count != nil {
			rating.Count = *p.Rating.Count
		}
		product.Rating = rating
	}
	return product
}

type reviewPayload struct {
	ID        flexibleID `json:"id"`
	ProductID flexibleID `json:"productId"`
	UserID    flexibleID `json:"userId"`
	Rating    *float64   `json:"rating"`
	Comment   string     `json:"comment"`
	Timestamp string     `json:"timestamp"`
}

func (p reviewPayload) validate() error {
	if strings.TrimSpace(string(p.ProductID)) == "" {
		return &DecodeError{Resource: "review", Field: "productId", Reason: "is required"}
	}
	if p.Rating == nil {
		return &DecodeError{Resource: "review", Field: "rating", Reason: "is required"}
	}
	if r := *p.Rating; r != math.Trunc(r) || r < 1 || r > 5 {
		return &DecodeError{Resource: "review", Field: "rating", Reason: "must be an integer between 1 and 5"}
	}
	if ts := strings.TrimSpace(p.Timestamp); ts != "" {
		if _, err := time.Parse(time.RFC3339, ts); err != nil {
			return &DecodeError{Resource: "review", Field: "timestamp", Reason: "must be RFC3339", Err: err}
		}
	}
	return nil
}

func (p reviewPayload) toDomain() domain.Review {
	review := domain.Review{
		ID:        string(p.ID),
		ProductID: string(p.ProductID),
		UserID:    string(p.UserID),
		Rating:    int(*p.Rating),
		Comment:   p.Comment,
	}
	if ts := strings.TrimSpace(p.Timestamp); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			review.Timestamp = parsed.UTC()
		}
	}
	return review
}

type userPayload struct {
	ID           flexibleID `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Password     string     `json:"password"`
	ProfileImage string     `json:"profileImage"`
}

func (p userPayload) validate() error {
	if strings.TrimSpace(string(p.ID)) == "" {
		return &DecodeError{Resource: "user", Field: "id", Reason: "is required"}
	}
	if strings.TrimSpace(p.Email) == "" {
		return &DecodeError{Resource: "user", Field: "email", Reason: "is required"}
	}
	return nil
}

func (p userPayload) toDomain() domain.User {
	return domain.User{
		ID:           string(p.ID),
		Name:         strings.TrimSpace(p.Name),
		Email:        strings.TrimSpace(p.Email),
		Password:     p.Password,
		ProfileImage: strings.TrimSpace(p.ProfileImage),
	}
}

func decodeProducts(data []byte) ([]domain.Product, error) {
	var payloads []productPayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, &DecodeError{Resource: "products", Reason: "malformed body", Err: err}
	}
	products := make([]domain.Product, 0, len(payloads))
	for i, p := range payloads {
		if err := p.validate(); err != nil {
			return nil, indexed(err, i)
		}
		products = append(products, p.toDomain())
	}
	return products, nil
}

func decodeProduct(data []byte) (domain.Product, error) {
	var p productPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Product{}, &DecodeError{Resource: "product", Reason: "malformed body", Err: err}
	}
	if err := p.validate(); err != nil {
		return domain.Product{}, err
	}
	return p.toDomain(), nil
}

func decodeReviews(data []byte) ([]domain.Review, error) {
	var payloads []reviewPayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, &DecodeError{Resource: "reviews", Reason: "malformed body", Err: err}
	}
	reviews := make([]domain.Review, 0, len(payloads))
	for i, p := range payloads {
		if err := p.validate(); err != nil {
			return nil, indexed(err, i)
		}
		reviews = append(reviews, p.toDomain())
	}
	return reviews, nil
}

func decodeReview(data []byte) (domain.Review, error) {
	var p reviewPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Review{}, &DecodeError{Resource: "review", Reason: "malformed body", Err: err}
	}
	if err := p.validate(); err != nil {
		return domain.Review{}, err
	}
	return p.toDomain(), nil
}

func decodeUsers(data []byte) ([]domain.User, error) {
	var payloads []userPayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, &DecodeError{Resource: "users", Reason: "malformed body", Err: err}
	}
	users := make([]domain.User, 0, len(payloads))
	for i, p := range payloads {
		if err := p.validate(); err != nil {
			return nil, indexed(err, i)
		}
		users = append(users, p.toDomain())
	}
	return users, nil
}

func decodeUser(data []byte) (domain.User, error) {
	var p userPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.User{}, &DecodeError{Resource: "user", Reason: "malformed body", Err: err}
	}
	if err := p.validate(); err != nil {
		return domain.User{}, err
	}
	return p.toDomain(), nil
}

func indexed(err error, i int) error {
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		copied := *decodeErr
		copied.Resource = copied.Resource + "[" + strconv.Itoa(i) + "]"
		return &copied
	}
	return err
}
