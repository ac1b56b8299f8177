package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-replica/internal/domain"
	userrepo "storefront-replica/internal/repository/user"
)

type profileRequest struct {
	FullName    *string `json:"fullName"`
	Phone       *string `json:"phone"`
	DateOfBirth *string `json:"dateOfBirth"`
}

type addressRequest struct {
	Label      string `json:"label"`
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
	IsDefault  bool   `json:"isDefault"`
}

// me renders the merged identity, not the raw user record: it reflects the
// same two-phase view every other surface sees.
func (h handlers) me(c *gin.Context) {
	store := storeFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"identity": store.Identity(),
		"state":    store.State(),
	})
}

func (h handlers) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile payload"})
		return
	}

	store := storeFrom(c)
	ok := store.UpdateProfile(c.Request.Context(), userrepo.ProfileUpdate{
		FullName:    req.FullName,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
	})
	if !ok {
		c.JSON(http.StatusBadGateway, gin.H{"error": "profile update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"identity": store.Identity()})
}

func (h handlers) uploadAvatar(c *gin.Context) {
	if h.deps.Files == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "file storage is not configured"})
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is unreadable"})
		return
	}
	defer src.Close()

	name, err := h.deps.Files.Upload(file.Filename, src)
	if err != nil {
		h.logger.Printf("store avatar: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store avatar"})
		return
	}

	sess := sessionFrom(c)
	url := h.deps.Files.PublicURL(name)
	updated, err := h.deps.Users.SetAvatarURL(c.Request.Context(), sess.User.ID, url)
	if err != nil {
		h.logger.Printf("set avatar url for %s: %v", sess.User.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save avatar"})
		return
	}
	storeFrom(c).ApplyRecord(updated)
	c.JSON(http.StatusOK, gin.H{"avatarUrl": url})
}

// listAddresses reads through the identity store so repeated requests hit
// the cached collection.
func (h handlers) listAddresses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"addresses": storeFrom(c).Addresses(c.Request.Context())})
}

func (h handlers) createAddress(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "street, city, postalCode and country are required"})
		return
	}

	sess := sessionFrom(c)
	created, err := h.deps.Addresses.Create(c.Request.Context(), domain.Address{
		UserID:     sess.User.ID,
		Label:      req.Label,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		h.logger.Printf("create address for %s: %v", sess.User.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save address"})
		return
	}
	storeFrom(c).InvalidateCollections()
	c.JSON(http.StatusCreated, created)
}

func (h handlers) deleteAddress(c *gin.Context) {
	sess := sessionFrom(c)
	err := h.deps.Addresses.Delete(c.Request.Context(), sess.User.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
			return
		}
		h.logger.Printf("delete address for %s: %v", sess.User.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete address"})
		return
	}
	storeFrom(c).InvalidateCollections()
	c.Status(http.StatusNoContent)
}
