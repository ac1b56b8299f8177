package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-replica/internal/domain"
	ordersvc "storefront-replica/internal/order"
)

type checkoutRequest struct {
	PaymentMethod string  `json:"paymentMethod" binding:"required"`
	AddressID     *string `json:"addressId"`
}

type refundRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h handlers) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paymentMethod is required"})
		return
	}

	sess := sessionFrom(c)
	o, err := h.deps.Orders.Checkout(c.Request.Context(), sess.User.ID, ordersvc.CheckoutInput{
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		AddressID:     req.AddressID,
	})
	if err != nil {
		if errors.Is(err, ordersvc.ErrEmptyCart) {
			c.JSON(http.StatusConflict, gin.H{"error": "cart is empty"})
			return
		}
		h.logger.Printf("checkout %s: %v", sess.User.ID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	storeFrom(c).InvalidateCollections()
	c.JSON(http.StatusCreated, o)
}

// listMyOrders reads through the identity store's cached collection.
func (h handlers) listMyOrders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"orders": storeFrom(c).Orders(c.Request.Context())})
}

func (h handlers) getMyOrder(c *gin.Context) {
	sess := sessionFrom(c)
	o, err := h.deps.Orders.Get(c.Request.Context(), sess.User.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		h.logger.Printf("get order for %s: %v", sess.User.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load order"})
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h handlers) requestRefund(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}

	sess := sessionFrom(c)
	r, err := h.deps.Orders.RequestRefund(c.Request.Context(), sess.User.ID, c.Param("id"), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, ordersvc.ErrNotRefundable):
			c.JSON(http.StatusConflict, gin.H{"error": "order is not refundable"})
		default:
			h.logger.Printf("refund request for %s: %v", sess.User.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create refund request"})
		}
		return
	}
	storeFrom(c).InvalidateCollections()
	c.JSON(http.StatusCreated, r)
}

func (h handlers) listMyRefunds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"refunds": storeFrom(c).Refunds(c.Request.Context())})
}

func (h handlers) adminListOrders(c *gin.Context) {
	var status *domain.OrderStatus
	if v := c.Query("status"); v != "" {
		s := domain.OrderStatus(v)
		status = &s
	}
	list, err := h.deps.Orders.ListAll(c.Request.Context(), status)
	if err != nil {
		h.logger.Printf("admin list orders: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h handlers) adminSetOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	o, err := h.deps.Orders.SetStatus(c.Request.Context(), c.Param("id"), domain.OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, ordersvc.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "invalid status transition"})
		default:
			h.logger.Printf("set order status: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update order"})
		}
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h handlers) adminListRefunds(c *gin.Context) {
	list, err := h.deps.Orders.AllRefunds(c.Request.Context())
	if err != nil {
		h.logger.Printf("admin list refunds: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list refunds"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"refunds": list})
}
