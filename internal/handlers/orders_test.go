package handlers

import (
	"net/http"
	"testing"
)

func TestOrderHandlersSaveAndList(t *testing.T) {
	stack := newTestStack(t)
	token := stack.login(t, "shopper@example.com", "hunter2")

	rr := stack.do(t, http.MethodGet, "/api/v1/orders", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var list struct {
		Orders []struct {
			ID          string  `json:"id"`
			UserID      string  `json:"userId"`
			TotalAmount float64 `json:"totalAmount"`
		} `json:"orders"`
	}
	decodeJSON(t, rr, &list)
	if list.Orders == nil || len(list.Orders) != 0 {
		t.Fatalf("expected an empty order list, got %+v", list.Orders)
	}

	rr = stack.do(t, http.MethodPost, "/api/v1/orders", token, map[string]any{
		"items": []map[string]any{
			{"id": 1, "name": "Backpack", "price": 109.95, "quantity": 1},
			{"id": 2, "name": "T-Shirt", "price": 22.3, "quantity": 2},
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = stack.do(t, http.MethodGet, "/api/v1/orders", token, nil)
	decodeJSON(t, rr, &list)
	if len(list.Orders) != 1 {
		t.Fatalf("expected one order, got %+v", list.Orders)
	}
	if list.Orders[0].UserID != "u2" || list.Orders[0].TotalAmount != 154.55 {
		t.Fatalf("unexpected order %+v", list.Orders[0])
	}
}

func TestOrderHandlersRejectInvalidOrder(t *testing.T) {
	stack := newTestStack(t)
	token := stack.login(t, "shopper@example.com", "hunter2")

	cases := map[string]any{
		"no items":      map[string]any{"items": []any{}},
		"zero quantity": map[string]any{"items": []map[string]any{{"id": 1, "name": "x", "price": 1, "quantity": 0}}},
		"unknown field": `{"items":[],"coupon":"FREE"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rr := stack.do(t, http.MethodPost, "/api/v1/orders", token, body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rr.Code)
			}
		})
	}
}

func TestOrderHandlersAddress(t *testing.T) {
	stack := newTestStack(t)
	token := stack.login(t, "shopper@example.com", "hunter2")

	rr := stack.do(t, http.MethodGet, "/api/v1/orders/address", token, nil)
	var body struct {
		Address *struct {
			Name    string `json:"name"`
			Pincode string `json:"pincode"`
			City    string `json:"city"`
		} `json:"address"`
	}
	decodeJSON(t, rr, &body)
	if body.Address != nil {
		t.Fatalf("expected no address yet, got %+v", body.Address)
	}

	rr = stack.do(t, http.MethodPut, "/api/v1/orders/address", token, map[string]string{
		"name": "  Shopper ", "pincode": "560001", "city": "Bengaluru",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = stack.do(t, http.MethodGet, "/api/v1/orders/address", token, nil)
	decodeJSON(t, rr, &body)
	if body.Address == nil || body.Address.Name != "Shopper" || body.Address.Pincode != "560001" {
		t.Fatalf("unexpected address %+v", body.Address)
	}

	rr = stack.do(t, http.MethodPut, "/api/v1/orders/address", token, map[string]string{"name": " "})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for empty address, got %d", rr.Code)
	}
}
