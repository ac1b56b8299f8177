package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-replica/internal/domain"
)

type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type shippingRequest struct {
	Method string `json:"method" binding:"required"`
}

func (h handlers) getCart(c *gin.Context) {
	view, err := h.deps.Cart.Get(c.Request.Context(), sessionFrom(c).User.ID)
	if err != nil {
		h.cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// addCartItem snapshots the product into the cart line. The snapshot keeps
// the price the customer saw; later catalog edits do not reprice the cart
// until it is rebuilt.
func (h handlers) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId is required"})
		return
	}

	p, err := h.deps.Products.GetByID(c.Request.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.cartError(c, err)
		return
	}
	if !p.Active || p.Stock <= 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "product is unavailable"})
		return
	}

	view, err := h.deps.Cart.AddItem(c.Request.Context(), sessionFrom(c).User.ID, domain.ProductRef{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		ImageURL: p.ImageURL,
	})
	if err != nil {
		h.cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h handlers) setCartQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required"})
		return
	}
	view, err := h.deps.Cart.UpdateQuantity(c.Request.Context(), sessionFrom(c).User.ID, c.Param("productId"), req.Quantity)
	if err != nil {
		h.cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h handlers) removeCartItem(c *gin.Context) {
	view, err := h.deps.Cart.RemoveItem(c.Request.Context(), sessionFrom(c).User.ID, c.Param("productId"))
	if err != nil {
		h.cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h handlers) clearCart(c *gin.Context) {
	view, err := h.deps.Cart.Clear(c.Request.Context(), sessionFrom(c).User.ID)
	if err != nil {
		h.cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h handlers) setCartShipping(c *gin.Context) {
	var req shippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "method is required"})
		return
	}
	view, err := h.deps.Cart.SetShipping(c.Request.Context(), sessionFrom(c).User.ID, domain.ShippingMethod(req.Method))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h handlers) listShippingTiers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tiers": domain.ShippingTiers()})
}

func (h handlers) cartError(c *gin.Context, err error) {
	h.logger.Printf("cart: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "cart operation failed"})
}
