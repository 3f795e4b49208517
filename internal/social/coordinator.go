package social

import (
	"context"
	"errors"
	"time"

	"availability-service/internal/logger"
	"availability-service/internal/models"
	"availability-service/internal/observability"
	"availability-service/internal/rabbitmq"
	"availability-service/internal/services"
	"availability-service/internal/store"
)

type Option func(*SocialCoordinator)

// WithNow overrides the wall clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(c *SocialCoordinator) { c.now = now }
}

// SocialCoordinator orchestrates the relationship transitions and
// derives the live friends view.
type SocialCoordinator struct {
	store  store.Store
	users  *services.UserService
	events rabbitmq.Publisher
	now    func() time.Time
}

func NewSocialCoordinator(st store.Store, users *services.UserService, events rabbitmq.Publisher, opts ...Option) *SocialCoordinator {
	c := &SocialCoordinator{store: st, users: users, events: events, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendRequest resolves the receiver by email and opens a pending
// invite from the sender.
func (c *SocialCoordinator) SendRequest(ctx context.Context, senderID, receiverEmail string) error {
	if senderID == "" {
		return ErrUnauthorized
	}

	receiver, err := c.users.FindByEmail(ctx, receiverEmail)
	if errors.Is(err, services.ErrUserNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return mapStoreErr(err)
	}
	if receiver.ID == senderID {
		return ErrCannotAddSelf
	}

	now := c.now().UTC()
	err = c.store.RunTransaction(ctx, func(txn store.Txn) error {
		return applySend(txn, senderID, receiver.ID, now)
	})
	if err != nil {
		return mapStoreErr(err)
	}

	c.publish(ctx, "friend.request.created", map[string]any{
		"request_id":  RequestID(senderID, receiver.ID),
		"sender_id":   senderID,
		"receiver_id": receiver.ID,
	})
	return nil
}

// Respond accepts or declines a pending request addressed to
// responderID. decision is models.RequestAccepted or
// models.RequestDeclined.
func (c *SocialCoordinator) Respond(ctx context.Context, responderID, requestID, decision string) error {
	if responderID == "" {
		return ErrUnauthorized
	}
	if decision != models.RequestAccepted && decision != models.RequestDeclined {
		return ErrInvalidDecision
	}

	var req models.FriendRequest
	err := c.store.RunTransaction(ctx, func(txn store.Txn) error {
		var err error
		req, err = applyRespond(txn, responderID, requestID, decision)
		return err
	})
	if err != nil {
		return mapStoreErr(err)
	}

	if decision == models.RequestAccepted {
		c.publish(ctx, "friendship.created", map[string]any{
			"user_id":   req.SenderID,
			"friend_id": req.ReceiverID,
		})
	}
	return nil
}

// Cancel withdraws the sender's own unanswered invite to peerID.
func (c *SocialCoordinator) Cancel(ctx context.Context, senderID, peerID string) error {
	if senderID == "" {
		return ErrUnauthorized
	}
	err := c.store.RunTransaction(ctx, func(txn store.Txn) error {
		return applyCancel(txn, senderID, peerID)
	})
	return mapStoreErr(err)
}

// Remove deletes the friendship in both directions along with any
// request record, whichever side created it.
func (c *SocialCoordinator) Remove(ctx context.Context, ownerID, peerID string) error {
	if ownerID == "" {
		return ErrUnauthorized
	}
	err := c.store.RunTransaction(ctx, func(txn store.Txn) error {
		return applyRemove(txn, ownerID, peerID)
	})
	if err != nil {
		return mapStoreErr(err)
	}

	c.publish(ctx, "friendship.removed", map[string]any{
		"user_id":   ownerID,
		"friend_id": peerID,
	})
	return nil
}

// IncomingRequests lists pending requests addressed to the user, newest
// first.
func (c *SocialCoordinator) IncomingRequests(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	docs, err := c.store.Query(ctx, models.FriendRequestsCollection, store.Filter{
		"receiver_id": userID,
		"status":      models.RequestPending,
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	requests := make([]models.FriendRequest, 0, len(docs))
	for _, doc := range docs {
		var req models.FriendRequest
		if err := doc.Decode(&req); err != nil {
			return nil, mapStoreErr(err)
		}
		requests = append(requests, req)
	}
	sortRequests(requests)
	return requests, nil
}

// ListFriends returns a snapshot of the friends view: each of the
// owner's edges joined with the peer's current profile. Edges whose
// peer profile has vanished are skipped rather than failing the list.
func (c *SocialCoordinator) ListFriends(ctx context.Context, ownerID string) ([]models.FriendView, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	docs, err := c.store.Query(ctx, models.FriendEdgesCollection, store.Filter{"owner_id": ownerID})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	views := make([]models.FriendView, 0, len(docs))
	for _, doc := range docs {
		var edge models.FriendEdge
		if err := doc.Decode(&edge); err != nil {
			return nil, mapStoreErr(err)
		}
		peer, err := c.users.GetByID(ctx, edge.PeerID)
		if errors.Is(err, services.ErrUserNotFound) {
			logger.Warnf("friends list: peer %s has no profile", edge.PeerID)
			continue
		}
		if err != nil {
			return nil, mapStoreErr(err)
		}
		views = append(views, models.FriendView{
			PeerID:   edge.PeerID,
			Username: peer.Username,
			Status:   edge.Status,
			FreeNow:  peer.FreeNow,
		})
	}
	sortViews(views)
	return views, nil
}

// Friends opens the live friends view. The caller owns the returned
// feed and must close it; closing releases the edge subscription and
// every per-peer status subscription exactly once.
func (c *SocialCoordinator) Friends(ctx context.Context, ownerID string) (*FriendFeed, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	edgeSub, err := c.store.LiveQuery(ctx, models.FriendEdgesCollection, store.Filter{"owner_id": ownerID})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	feed := newFriendFeed(c.store, edgeSub)
	go feed.run()
	return feed, nil
}

func (c *SocialCoordinator) publish(ctx context.Context, eventType string, payload any) {
	if c.events == nil {
		return
	}
	if err := c.events.Publish(ctx, eventType, payload); err != nil {
		observability.IncAMQPPublishError()
		logger.Warnf("failed to publish %s: %v", eventType, err)
	}
}
