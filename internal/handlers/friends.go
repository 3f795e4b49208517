package handlers

import (
	"context"
	"errors"
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"availability-service/internal/metrics"
	"availability-service/internal/models"
	"availability-service/internal/services"
	"availability-service/internal/social"
	"availability-service/internal/telemetry"
)

type FriendHandler struct {
	social *social.SocialCoordinator
	users  *services.UserService
	audit  *telemetry.AuditEmitter
}

func NewFriendHandler(coordinator *social.SocialCoordinator, users *services.UserService, audit *telemetry.AuditEmitter) *FriendHandler {
	return &FriendHandler{social: coordinator, users: users, audit: audit}
}

type sendRequestBody struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID := userIDFromContext(c)

	var body sendRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.emitAudit(c.Request.Context(), "ERROR", "invalid request payload", requestID, userID)
		metrics.IncFriendRequest(metrics.StatusFailed)
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	if err := h.social.SendRequest(ctx, userID, body.Email); err != nil {
		h.emitAudit(ctx, "ERROR", "friend request failed: "+err.Error(), requestID, userID)
		metrics.IncFriendRequest(metrics.StatusFailed)
		c.JSON(socialStatusCode(err), gin.H{"error": err.Error()})
		return
	}

	h.emitAudit(ctx, "INFO", "Friend request sent to '"+body.Email+"'", requestID, userID)
	metrics.IncFriendRequest(metrics.StatusSuccess)
	c.JSON(nethttp.StatusCreated, gin.H{"status": "pending"})
}

func (h *FriendHandler) ListIncoming(c *gin.Context) {
	userID := userIDFromContext(c)

	requests, err := h.social.IncomingRequests(c.Request.Context(), userID)
	if err != nil {
		c.JSON(socialStatusCode(err), gin.H{"error": "failed to load requests"})
		return
	}

	resp := make([]gin.H, 0, len(requests))
	for _, req := range requests {
		senderName := ""
		if sender, err := h.users.GetByID(c.Request.Context(), req.SenderID); err == nil {
			senderName = sender.Username
		}
		resp = append(resp, gin.H{
			"id":              req.ID,
			"sender_id":       req.SenderID,
			"sender_username": senderName,
			"status":          req.Status,
			"created_at":      req.CreatedAt,
		})
	}

	c.JSON(nethttp.StatusOK, resp)
}

func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	h.handleDecision(c, models.RequestAccepted, "accepted")
}

func (h *FriendHandler) DeclineRequest(c *gin.Context) {
	h.handleDecision(c, models.RequestDeclined, "declined")
}

func (h *FriendHandler) handleDecision(c *gin.Context, decision, status string) {
	requestID := requestIDFromHeader(c)
	userID := userIDFromContext(c)
	reqID := c.Param("id")

	ctx := c.Request.Context()
	if err := h.social.Respond(ctx, userID, reqID, decision); err != nil {
		h.emitAudit(ctx, "ERROR", "friend request "+status+" failed: "+err.Error(), requestID, userID)
		metrics.IncFriendDecision(decision, metrics.StatusFailed)
		c.JSON(socialStatusCode(err), gin.H{"error": err.Error()})
		return
	}

	h.emitAudit(ctx, "INFO", "Friend request "+status, requestID, userID)
	metrics.IncFriendDecision(decision, metrics.StatusSuccess)
	c.JSON(nethttp.StatusOK, gin.H{"status": status})
}

// CancelRequest withdraws the caller's own unanswered invite.
func (h *FriendHandler) CancelRequest(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID := userIDFromContext(c)
	peerID := c.Param("peer_id")

	ctx := c.Request.Context()
	if err := h.social.Cancel(ctx, userID, peerID); err != nil {
		h.emitAudit(ctx, "ERROR", "friend request cancel failed: "+err.Error(), requestID, userID)
		c.JSON(socialStatusCode(err), gin.H{"error": err.Error()})
		return
	}

	h.emitAudit(ctx, "INFO", "Friend request cancelled", requestID, userID)
	c.Status(nethttp.StatusNoContent)
}

func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID := userIDFromContext(c)
	peerID := c.Param("peer_id")

	ctx := c.Request.Context()
	if err := h.social.Remove(ctx, userID, peerID); err != nil {
		h.emitAudit(ctx, "ERROR", "friend removal failed: "+err.Error(), requestID, userID)
		c.JSON(socialStatusCode(err), gin.H{"error": err.Error()})
		return
	}

	h.emitAudit(ctx, "INFO", "Friend removed", requestID, userID)
	c.Status(nethttp.StatusNoContent)
}

func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID := userIDFromContext(c)

	friends, err := h.social.ListFriends(c.Request.Context(), userID)
	if err != nil {
		c.JSON(socialStatusCode(err), gin.H{"error": "failed to fetch friends"})
		return
	}
	c.JSON(nethttp.StatusOK, friends)
}

// socialStatusCode is the one place social failure kinds become HTTP
// statuses.
func socialStatusCode(err error) int {
	switch {
	case errors.Is(err, social.ErrUnauthorized):
		return nethttp.StatusUnauthorized
	case errors.Is(err, social.ErrCannotAddSelf), errors.Is(err, social.ErrInvalidDecision):
		return nethttp.StatusBadRequest
	case errors.Is(err, social.ErrUserNotFound), errors.Is(err, social.ErrRequestNotFound):
		return nethttp.StatusNotFound
	case errors.Is(err, social.ErrRequestForbidden):
		return nethttp.StatusForbidden
	case errors.Is(err, social.ErrRequestAlreadySent), errors.Is(err, social.ErrRequestAlreadyAccepted):
		return nethttp.StatusConflict
	case errors.Is(err, social.ErrNetworkUnavailable):
		return nethttp.StatusServiceUnavailable
	default:
		return nethttp.StatusInternalServerError
	}
}

func (h *FriendHandler) emitAudit(ctx context.Context, level, text, requestID, userID string) {
	if h.audit == nil {
		return
	}
	h.audit.EmitAudit(ctx, level, text, requestID, userID)
}
