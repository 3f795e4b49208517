// Package social keeps the friend graph consistent. A friendship is two
// per-owner edges plus one shared request record; nothing else ties them
// together, so every transition below is one all-or-nothing transaction
// that re-reads current state through the transaction handle. A retried
// transaction therefore re-decides instead of replaying a stale view.
package social

import (
	"errors"
	"time"

	"availability-service/internal/models"
	"availability-service/internal/store"
)

// RequestID derives the deterministic id for the ordered (sender,
// receiver) pair. Two concurrent sends for the same pair target the
// same document, which is what prevents duplicate pending requests.
func RequestID(senderID, receiverID string) string {
	return senderID + "_" + receiverID
}

// EdgeID derives the id of the owner's edge to the peer.
func EdgeID(ownerID, peerID string) string {
	return ownerID + "_" + peerID
}

// applySend creates the PENDING request and the sender's INVITED edge.
// The sender's existing edge decides whether the transition is legal.
func applySend(txn store.Txn, senderID, receiverID string, now time.Time) error {
	doc, err := txn.Get(models.FriendEdgesCollection, EdgeID(senderID, receiverID))
	switch {
	case err == nil:
		var edge models.FriendEdge
		if err := doc.Decode(&edge); err != nil {
			return err
		}
		if edge.Status == models.EdgeAccepted {
			return ErrRequestAlreadyAccepted
		}
		return ErrRequestAlreadySent
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	req := models.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.RequestPending,
		CreatedAt:  now,
	}
	if err := txn.Set(models.FriendRequestsCollection, RequestID(senderID, receiverID), req); err != nil {
		return err
	}
	edge := models.FriendEdge{
		OwnerID: senderID,
		PeerID:  receiverID,
		Status:  models.EdgeInvited,
	}
	return txn.Set(models.FriendEdgesCollection, EdgeID(senderID, receiverID), edge)
}

// applyRespond resolves a pending request. Accepting writes both edges
// ACCEPTED and marks the request; declining removes the request and the
// sender's INVITED edge. Both edge writes are overwrites so a retried
// accept lands in the same state.
func applyRespond(txn store.Txn, responderID, requestID, decision string) (models.FriendRequest, error) {
	doc, err := txn.Get(models.FriendRequestsCollection, requestID)
	if errors.Is(err, store.ErrNotFound) {
		return models.FriendRequest{}, ErrRequestNotFound
	}
	if err != nil {
		return models.FriendRequest{}, err
	}
	var req models.FriendRequest
	if err := doc.Decode(&req); err != nil {
		return models.FriendRequest{}, err
	}
	if req.ReceiverID != responderID {
		return models.FriendRequest{}, ErrRequestForbidden
	}

	switch decision {
	case models.RequestAccepted:
		if err := txn.Update(models.FriendRequestsCollection, requestID,
			store.Filter{"status": models.RequestAccepted}); err != nil {
			return models.FriendRequest{}, err
		}
		receiverEdge := models.FriendEdge{
			OwnerID: req.ReceiverID,
			PeerID:  req.SenderID,
			Status:  models.EdgeAccepted,
		}
		if err := txn.Set(models.FriendEdgesCollection,
			EdgeID(req.ReceiverID, req.SenderID), receiverEdge); err != nil {
			return models.FriendRequest{}, err
		}
		senderEdge := models.FriendEdge{
			OwnerID: req.SenderID,
			PeerID:  req.ReceiverID,
			Status:  models.EdgeAccepted,
		}
		return req, txn.Set(models.FriendEdgesCollection,
			EdgeID(req.SenderID, req.ReceiverID), senderEdge)

	case models.RequestDeclined:
		if err := txn.Delete(models.FriendRequestsCollection, requestID); err != nil {
			return models.FriendRequest{}, err
		}
		return req, txn.Delete(models.FriendEdgesCollection,
			EdgeID(req.SenderID, req.ReceiverID))

	default:
		return models.FriendRequest{}, ErrInvalidDecision
	}
}

// applyCancel withdraws an unanswered invite: the request and the
// sender's INVITED edge go together. Deletes are idempotent, so a
// cancel that races the receiver's decline still commits cleanly.
func applyCancel(txn store.Txn, senderID, receiverID string) error {
	if err := txn.Delete(models.FriendRequestsCollection, RequestID(senderID, receiverID)); err != nil {
		return err
	}
	return txn.Delete(models.FriendEdgesCollection, EdgeID(senderID, receiverID))
}

// applyRemove tears the relationship down from either side: both edges
// and both possible request ids, so no orphaned request survives no
// matter who originally invited whom.
func applyRemove(txn store.Txn, ownerID, peerID string) error {
	if err := txn.Delete(models.FriendEdgesCollection, EdgeID(ownerID, peerID)); err != nil {
		return err
	}
	if err := txn.Delete(models.FriendEdgesCollection, EdgeID(peerID, ownerID)); err != nil {
		return err
	}
	if err := txn.Delete(models.FriendRequestsCollection, RequestID(ownerID, peerID)); err != nil {
		return err
	}
	return txn.Delete(models.FriendRequestsCollection, RequestID(peerID, ownerID))
}
