package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-replica/internal/auth"
)

type signupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type resendRequest struct {
	Email string `json:"email" binding:"required"`
}

func (h handlers) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	metadata := map[string]string{}
	if req.FullName != "" {
		metadata["full_name"] = req.FullName
	}
	if req.Phone != "" {
		metadata["phone"] = req.Phone
	}

	u, _, err := h.deps.Auth.SignUp(c.Request.Context(), req.Email, req.Password, metadata)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, auth.ErrAlreadyRegistered) {
			status = http.StatusConflict
		}
		c.JSON(status, auth.Translate(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

func (h handlers) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	sess, err := h.deps.Auth.SignInWithPassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, auth.ErrEmailNotConfirmed) {
			status = http.StatusForbidden
		}
		c.JSON(status, auth.Translate(err))
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h handlers) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refreshToken is required"})
		return
	}

	sess, err := h.deps.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, auth.Translate(err))
		return
	}
	c.JSON(http.StatusOK, sess)
}

// signOut runs through the identity manager so the local store is cleared
// together with the upstream revocation. An absent or stale token still
// returns 204.
func (h handlers) signOut(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := cutBearer(header)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	sess, err := h.deps.Auth.GetSession(c.Request.Context(), token)
	if err != nil {
		c.Status(http.StatusNoContent)
		return
	}
	h.deps.Identity.SignOut(c.Request.Context(), sess)
	c.Status(http.StatusNoContent)
}

func (h handlers) resendConfirmation(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	if err := h.deps.Auth.ResendConfirmation(c.Request.Context(), req.Email); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, auth.ErrResendCooldown) {
			status = http.StatusTooManyRequests
		}
		c.JSON(status, auth.Translate(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

func (h handlers) confirm(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}
	if err := h.deps.Auth.VerifyConfirmationToken(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusUnauthorized, auth.Translate(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}
