package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"storefront-replica/internal/domain"
	ordersvc "storefront-replica/internal/order"
)

func customerEnv() *testEnv {
	user := &domain.User{ID: "u1", Email: "user@example.com", Role: domain.RoleCustomer, EmailVerified: true}
	return newTestEnv(user)
}

func TestAddCartItemSnapshotsProduct(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := customerEnv()
	env.products.product = &domain.Product{ID: "p1", Name: "Widget", Price: 9.5, Stock: 3, Active: true}

	rec := doAuthed(t, env, http.MethodPost, "/cart/items", `{"productId":"p1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if len(env.cart.added) != 1 {
		t.Fatalf("expected one add, got %d", len(env.cart.added))
	}
	ref := env.cart.added[0]
	if ref.ID != "p1" || ref.Name != "Widget" || ref.Price != 9.5 {
		t.Fatalf("snapshot mismatch: %+v", ref)
	}
}

func TestAddCartItemUnknownProduct(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := customerEnv()

	rec := doAuthed(t, env, http.MethodPost, "/cart/items", `{"productId":"missing"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestAddCartItemInactiveProduct(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := customerEnv()
	env.products.product = &domain.Product{ID: "p1", Name: "Widget", Price: 9.5, Stock: 3, Active: false}

	rec := doAuthed(t, env, http.MethodPost, "/cart/items", `{"productId":"p1"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
	if len(env.cart.added) != 0 {
		t.Fatalf("inactive product must not reach the cart")
	}
}

func TestCheckoutEmptyCartConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := customerEnv()
	env.orders.checkoutErr = ordersvc.ErrEmptyCart

	rec := doAuthed(t, env, http.MethodPost, "/me/orders", `{"paymentMethod":"pix"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestShippingTiersArePublic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newTestEnv(nil)
	router, err := buildRouter(logDiscard(), nil, env.deps)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/shipping-tiers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
}
