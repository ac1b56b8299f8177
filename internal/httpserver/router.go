package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-replica/internal/auth"
	cartsvc "storefront-replica/internal/cart"
	"storefront-replica/internal/domain"
	"storefront-replica/internal/identity"
	ordersvc "storefront-replica/internal/order"
	addressrepo "storefront-replica/internal/repository/address"
	categoryrepo "storefront-replica/internal/repository/category"
	productrepo "storefront-replica/internal/repository/product"
	userrepo "storefront-replica/internal/repository/user"
)

// AuthService is the auth-collaborator surface the handlers consume.
type AuthService interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*domain.User, string, error)
	SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error)
	GetSession(ctx context.Context, accessToken string) (*auth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.Session, error)
	ResendConfirmation(ctx context.Context, email string) error
	VerifyConfirmationToken(ctx context.Context, token string) error
}

// IdentityManager hands out the per-user identity store for a session.
type IdentityManager interface {
	StoreForSession(ctx context.Context, sess *auth.Session) *identity.Store
	SignOut(ctx context.Context, sess *auth.Session)
}

// CartService mutates the session user's cart.
type CartService interface {
	Get(ctx context.Context, ownerID string) (*cartsvc.View, error)
	AddItem(ctx context.Context, ownerID string, product domain.ProductRef) (*cartsvc.View, error)
	UpdateQuantity(ctx context.Context, ownerID, productID string, quantity int) (*cartsvc.View, error)
	RemoveItem(ctx context.Context, ownerID, productID string) (*cartsvc.View, error)
	Clear(ctx context.Context, ownerID string) (*cartsvc.View, error)
	SetShipping(ctx context.Context, ownerID string, method domain.ShippingMethod) (*cartsvc.View, error)
}

// OrderService turns carts into orders and tracks them.
type OrderService interface {
	Checkout(ctx context.Context, userID string, in ordersvc.CheckoutInput) (*domain.Order, error)
	Get(ctx context.Context, userID, orderID string) (*domain.Order, error)
	ListAll(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error)
	SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
	RequestRefund(ctx context.Context, userID, orderID, reason string) (*domain.RefundRequest, error)
	AllRefunds(ctx context.Context) ([]domain.RefundRequest, error)
}

// FileStore keeps uploaded files and maps them to public URLs.
type FileStore interface {
	Upload(filename string, content io.Reader) (string, error)
	PublicURL(name string) string
	Dir() string
}

// Deps carries every collaborator the router wires handlers to.
type Deps struct {
	Auth       AuthService
	Identity   IdentityManager
	Cart       CartService
	Orders     OrderService
	Users      userrepo.Repository
	Products   productrepo.Repository
	Categories categoryrepo.Repository
	Addresses  addressrepo.Repository
	Files      FileStore
}

func (d Deps) validate() error {
	switch {
	case d.Auth == nil:
		return errors.New("auth service is required")
	case d.Identity == nil:
		return errors.New("identity manager is required")
	case d.Cart == nil:
		return errors.New("cart service is required")
	case d.Orders == nil:
		return errors.New("order service is required")
	case d.Users == nil:
		return errors.New("user repository is required")
	case d.Products == nil:
		return errors.New("product repository is required")
	case d.Categories == nil:
		return errors.New("category repository is required")
	case d.Addresses == nil:
		return errors.New("address repository is required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	if deps.Files != nil {
		router.Static("/files", deps.Files.Dir())
	}

	h := handlers{deps: deps, logger: logger}

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", h.signup)
		authGroup.POST("/token", h.signIn)
		authGroup.POST("/refresh", h.refresh)
		authGroup.POST("/signout", h.signOut)
		authGroup.POST("/resend-confirmation", h.resendConfirmation)
		authGroup.GET("/confirm", h.confirm)
	}

	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)
	router.GET("/categories", h.listCategories)
	router.GET("/categories/:slug", h.getCategory)
	router.GET("/shipping-tiers", h.listShippingTiers)

	me := router.Group("/me", h.requireSession)
	{
		me.GET("", h.me)
		me.PATCH("", h.updateProfile)
		me.POST("/avatar", h.uploadAvatar)
		me.GET("/addresses", h.listAddresses)
		me.POST("/addresses", h.createAddress)
		me.DELETE("/addresses/:id", h.deleteAddress)
		me.GET("/orders", h.listMyOrders)
		me.GET("/orders/:id", h.getMyOrder)
		me.POST("/orders", h.checkout)
		me.POST("/orders/:id/refund", h.requestRefund)
		me.GET("/refunds", h.listMyRefunds)
	}

	cart := router.Group("/cart", h.requireSession)
	{
		cart.GET("", h.getCart)
		cart.DELETE("", h.clearCart)
		cart.POST("/items", h.addCartItem)
		cart.PUT("/items/:productId", h.setCartQuantity)
		cart.DELETE("/items/:productId", h.removeCartItem)
		cart.PUT("/shipping", h.setCartShipping)
	}

	admin := router.Group("/admin", h.requireSession)
	{
		admin.GET("/products", h.requireRoute("/admin/products"), h.adminListProducts)
		admin.POST("/products", h.requireRoute("/admin/products/new"), h.adminCreateProduct)
		admin.PUT("/products/:id", h.requireRoute("/admin/products/edit"), h.adminUpdateProduct)
		admin.DELETE("/products/:id", h.requirePermission("products", "delete"), h.adminDeleteProduct)
		admin.GET("/categories", h.requireRoute("/admin/categories"), h.adminListCategories)
		admin.POST("/categories", h.requireRoute("/admin/categories/new"), h.adminCreateCategory)
		admin.DELETE("/categories/:id", h.requirePermission("categories", "delete"), h.adminDeleteCategory)
		admin.GET("/orders", h.requireRoute("/admin/orders"), h.adminListOrders)
		admin.PUT("/orders/:id/status", h.requireRoute("/admin/orders/status"), h.adminSetOrderStatus)
		admin.GET("/refunds", h.requireRoute("/admin/refunds"), h.adminListRefunds)
	}

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *log.Logger
}
