package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Sudarshan2323/Resto/internal/enum"
	"github.com/Sudarshan2323/Resto/internal/handler"
	"github.com/Sudarshan2323/Resto/internal/model"
	"github.com/Sudarshan2323/Resto/internal/store/memory"
)

func setupOrderRouter(t *testing.T, orders ...model.OnlineOrder) *chi.Mux {
	t.Helper()
	st, err := memory.New("")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, o := range orders {
		if err := st.AddOnlineOrder(o); err != nil {
			t.Fatalf("add order: %v", err)
		}
	}
	h := handler.NewOnlineOrderHandler(st)
	r := chi.NewRouter()
	r.Route("/online-orders", h.RegisterRoutes)
	return r
}

func zomatoOrder(status string) model.OnlineOrder {
	return model.OnlineOrder{
		ID:       "oo-1",
		Platform: "Zomato",
		Items:    []model.OnlineOrderItem{{Name: "Butter Chicken", Quantity: 1}},
		Total:    decimal.NewFromInt(450),
		Status:   status,
		PlacedAt: time.Now(),
	}
}

func TestOnlineOrderList(t *testing.T) {
	router := setupOrderRouter(t, zomatoOrder(enum.OnlineOrderStatusNew))

	rr := doRequest(t, router, "GET", "/online-orders/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	resp := decodeList(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 order, got %d", len(resp))
	}
	if resp[0]["platform"] != "Zomato" || resp[0]["total"] != "450.00" {
		t.Errorf("order: %v", resp[0])
	}
}

func TestOnlineOrderStatus_ForwardStep(t *testing.T) {
	router := setupOrderRouter(t, zomatoOrder(enum.OnlineOrderStatusNew))

	rr := doRequest(t, router, "PATCH", "/online-orders/oo-1/status", map[string]interface{}{
		"status": enum.OnlineOrderStatusAccepted,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", rr.Code, rr.Body.String())
	}
	if resp := decodeObject(t, rr); resp["status"] != enum.OnlineOrderStatusAccepted {
		t.Errorf("order status: %v", resp["status"])
	}
}

func TestOnlineOrderStatus_RejectsSkippedStep(t *testing.T) {
	router := setupOrderRouter(t, zomatoOrder(enum.OnlineOrderStatusNew))

	rr := doRequest(t, router, "PATCH", "/online-orders/oo-1/status", map[string]interface{}{
		"status": enum.OnlineOrderStatusPreparing,
	})
	if rr.Code != http.StatusConflict {
		t.Errorf("skipped step: got %d, want 409", rr.Code)
	}
}

func TestOnlineOrderStatus_RejectsBackwardStep(t *testing.T) {
	router := setupOrderRouter(t, zomatoOrder(enum.OnlineOrderStatusPreparing))

	rr := doRequest(t, router, "PATCH", "/online-orders/oo-1/status", map[string]interface{}{
		"status": enum.OnlineOrderStatusAccepted,
	})
	if rr.Code != http.StatusConflict {
		t.Errorf("backward step: got %d, want 409", rr.Code)
	}
}

func TestOnlineOrderStatus_CompletedIsTerminal(t *testing.T) {
	router := setupOrderRouter(t, zomatoOrder(enum.OnlineOrderStatusCompleted))

	rr := doRequest(t, router, "PATCH", "/online-orders/oo-1/status", map[string]interface{}{
		"status": enum.OnlineOrderStatusNew,
	})
	if rr.Code != http.StatusConflict {
		t.Errorf("terminal state: got %d, want 409", rr.Code)
	}
}

func TestOnlineOrderStatus_NotFound(t *testing.T) {
	router := setupOrderRouter(t)

	rr := doRequest(t, router, "PATCH", "/online-orders/missing/status", map[string]interface{}{
		"status": enum.OnlineOrderStatusAccepted,
	})
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}
