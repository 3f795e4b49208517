package models

import "time"

const (
	FriendEdgesCollection    = "friend_edges"
	FriendRequestsCollection = "friend_requests"
)

// Edge statuses.
const (
	EdgeInvited  = "INVITED"
	EdgeAccepted = "ACCEPTED"
)

// Request statuses.
const (
	RequestPending  = "PENDING"
	RequestAccepted = "ACCEPTED"
	RequestDeclined = "DECLINED"
)

// FriendEdge is one direction of a friendship, stored under its owner.
// A full friendship between A and B is the pair of edges A to B and
// B to A.
type FriendEdge struct {
	ID      string `bson:"_id,omitempty" json:"-"`
	OwnerID string `bson:"owner_id" json:"owner_id"`
	PeerID  string `bson:"peer_id" json:"peer_id"`
	Status  string `bson:"status" json:"status"`
}

// FriendRequest is the shared record for one outstanding invite. Its id
// is the deterministic senderId_receiverId pair, which is what prevents
// duplicate pending requests for the same ordered pair.
type FriendRequest struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	SenderID   string    `bson:"sender_id" json:"sender_id"`
	ReceiverID string    `bson:"receiver_id" json:"receiver_id"`
	Status     string    `bson:"status" json:"status"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// FriendView is one row of the derived friends list: the edge joined
// with the peer's live profile.
type FriendView struct {
	PeerID   string `json:"peer_id"`
	Username string `json:"username"`
	Status   string `json:"status"`
	FreeNow  bool   `json:"free_now"`
}
