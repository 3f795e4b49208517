package handlers

import (
	"errors"
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"availability-service/internal/models"
	"availability-service/internal/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) GetUserByID(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(nethttp.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to fetch user"})
		return
	}
	c.JSON(nethttp.StatusOK, user)
}

func (h *UserHandler) GetMe(c *gin.Context) {
	userID := userIDFromContext(c)

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(nethttp.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to fetch profile"})
		return
	}
	c.JSON(nethttp.StatusOK, user)
}

type profileBody struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

// SaveMe upserts the caller's profile, preserving the free-now flag of
// an existing one.
func (h *UserHandler) SaveMe(c *gin.Context) {
	userID := userIDFromContext(c)

	var body profileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	freeNow := false
	if existing, err := h.users.GetByID(ctx, userID); err == nil {
		freeNow = existing.FreeNow
	}

	user := models.User{
		ID:       userID,
		Username: body.Username,
		Email:    body.Email,
		FreeNow:  freeNow,
	}
	if err := h.users.SaveProfile(ctx, user); err != nil {
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to save profile"})
		return
	}
	c.JSON(nethttp.StatusOK, user)
}

type statusBody struct {
	FreeNow *bool `json:"free_now" binding:"required"`
}

// SetStatus toggles the caller's live "free now" flag.
func (h *UserHandler) SetStatus(c *gin.Context) {
	userID := userIDFromContext(c)

	var body statusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.users.SetFreeNow(c.Request.Context(), userID, *body.FreeNow); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(nethttp.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to update status"})
		return
	}
	c.JSON(nethttp.StatusOK, gin.H{"free_now": *body.FreeNow})
}
