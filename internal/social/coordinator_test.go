package social_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"availability-service/internal/models"
	"availability-service/internal/services"
	"availability-service/internal/social"
	"availability-service/internal/store"
)

var testNow = time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *store.MemoryStore
	users *services.UserService
	coord *social.SocialCoordinator
}

func newFixture(t *testing.T, profiles ...models.User) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	users := services.NewUserService(st)
	for _, u := range profiles {
		require.NoError(t, users.SaveProfile(context.Background(), u))
	}
	coord := social.NewSocialCoordinator(st, users, nil,
		social.WithNow(func() time.Time { return testNow }))
	return &fixture{store: st, users: users, coord: coord}
}

func alice() models.User {
	return models.User{ID: "alice", Username: "Alice", Email: "alice@example.com"}
}

func bob() models.User {
	return models.User{ID: "bob", Username: "Bob", Email: "bob@example.com"}
}

func (f *fixture) request(t *testing.T, id string) (models.FriendRequest, bool) {
	t.Helper()
	doc, err := f.store.Get(context.Background(), models.FriendRequestsCollection, id)
	if err != nil {
		require.ErrorIs(t, err, store.ErrNotFound)
		return models.FriendRequest{}, false
	}
	var req models.FriendRequest
	require.NoError(t, doc.Decode(&req))
	return req, true
}

func (f *fixture) edge(t *testing.T, id string) (models.FriendEdge, bool) {
	t.Helper()
	doc, err := f.store.Get(context.Background(), models.FriendEdgesCollection, id)
	if err != nil {
		require.ErrorIs(t, err, store.ErrNotFound)
		return models.FriendEdge{}, false
	}
	var edge models.FriendEdge
	require.NoError(t, doc.Decode(&edge))
	return edge, true
}

func TestSendRequestCreatesRequestAndEdge(t *testing.T) {
	f := newFixture(t, alice(), bob())
	ctx := context.Background()

	require.NoError(t, f.coord.SendRequest(ctx, "alice", "bob@example.com"))

	req, ok := f.request(t, social.RequestID("alice", "bob"))
	require.True(t, ok)
	require.Equal(t, "alice", req.SenderID)
	require.Equal(t, "bob", req.ReceiverID)
	require.Equal(t, models.RequestPending, req.Status)

	edge, ok := f.edge(t, social.EdgeID("alice", "bob"))
	require.True(t, ok)
	require.Equal(t, models.EdgeInvited, edge.Status)

	// The receiver has no edge until they accept.
	_, ok = f.edge(t, social.EdgeID("bob", "alice"))
	require.False(t, ok)
}

func TestSendRequestDuplicate(t *testing.T) {
	f := newFixture(t, alice(), bob())
	ctx := context.Background()

	require.NoError(t, f.coord.SendRequest(ctx, "alice", "bob@example.com"))
	err := f.coord.SendRequest(ctx, "alice", "bob@example.com")
	require.ErrorIs(t, err, social.ErrRequestAlreadySent)
}

func TestSendRequestToSelf(t *testing.T) {
	f := newFixture(t, alice())

	err := f.coord.SendRequest(context.Background(), "alice", "alice@example.com")
	require.ErrorIs(t, err, social.ErrCannotAddSelf)
}

func TestSendRequestUnknownEmail(t *testing.T) {
	f := newFixture(t, alice())

	err := f.coord.SendRequest(context.Background(), "alice", "nobody@example.com")
	require.ErrorIs(t, err, social.ErrUserNotFound)
}

func TestSendRequestAfterAccept(t *testing.T) {
	f := newFixture(t, alice(), bob())
	ctx := context.Background()

	require.NoError(t, f.coord.SendRequest(ctx, "alice", "bob@example.com"))
	require.NoError(t, f.coord.Respond(ctx, "bob", social.RequestID("alice", "bob"), models.RequestAccepted))

	err := f.coord.SendRequest(ctx, "alice", "bob@example.com")
	require.ErrorIs(t, err, social.ErrRequestAlreadyAccepted)
}

func TestAcceptWritesBothEdges(t *testing.T) {
	f := newFixture(t, alice(), bob())
	ctx := context.Background()
	reqID := social.RequestID("alice", "bob")

	require.NoError(t, f.coord.SendRequest(ctx, "alice", "bob@example.com"))
	require.NoError(t, f.coord.Respond(ctx, "bob", reqID, models.RequestAccepted))

	req, ok := f.request(t, reqID)
	require.True(t, ok)
	require.Equal(t, models.RequestAccepted, req.Status)

	sender, ok := f.edge(t, social.EdgeID("alice", "bob"))
	require.True(t, ok)
	require.Equal(t, models.EdgeAccepted, sender.Status)

	receiver, ok := f.edge(t, social.EdgeID("bob", "alice"))
	require.True(t, ok)
	require.Equal(t, models.EdgeAccepted, receiver.Status)
	require.Equal(t, "bob", receiver.OwnerID)
	require.Equal(t, "alice", receiver.PeerID)
}

func TestDeclineRemovesRequestAndInvite(t *testing.T) {
	f := newFixture(t, alice(), bob())
	ctx := context.Background()
	reqID := social.RequestID("alice", "bob")

	require.NoError(t, f.coord.SendRequest(ctx, "alice", "bob@example.com"))
	require.NoError(t, f.coord.Respond(ctx, "bob", reqID, models.RequestDeclined))

	_, ok := f.request(t, reqID)
	require.False(t, ok)
	_, ok = f.edge(t, social.EdgeID("alice", "bob"))
	require.False(t, ok)

	// The pair can start over.
	require.NoError(t, f.coord.SendRequest(ctx, "alice", "bob@example.com"))
}

func TestRespondNotAddressedToResponder(t *testing.T) {
	f := newFixture(t, alice(), bob())
	ctx := context.Background()
	reqID := social.RequestID("alice", "bob")

	require.NoError(t, f.coord.SendRequest(ctx, "alice", "bob@example.com"))

	err := f.coord.Respond(ctx, "alice", reqID, models.RequestAccepted)
	require.ErrorIs(t, err, social.ErrRequestForbidden)
}

func TestRespondMissingRequest(t *testing.T) {
	f := newFixture(t, bob())

	err := f.coord.Respond(context.Background(), "bob", "alice_bob", models.RequestAccepted)
	require.ErrorIs(t, err, social.ErrRequestNotFound)
}

func TestRespondInvalidDecision(t *testing.T) {
	f := newFixture(t, alice(), bob())
	ctx := context.Background()

	require.NoError(t, f.coord.SendRequest(ctx, "alice", "bob@example.com"))

	err := f.coord.Respond(ctx, "bob", social.RequestID("alice", "bob"), "MAYBE")
	require.ErrorIs(t, err, social.ErrInvalidDecision)
}

func TestCancelWithdrawsInvite(t *testing.T) {
	f := newFixture(t, alice(), bob())
	ctx := context.Background()

	require.NoError(t, f.coord.SendRequest(ctx, "alice", "bob@example.com"))
	require.NoError(t, f.coord.Cancel(ctx, "alice", "bob"))

	_, ok := f.request(t, social.RequestID("alice", "bob"))
	require.False(t, ok)
	_, ok = f.edge(t, social.EdgeID("alice", "bob"))
	require.False(t, ok)

	// Cancelling again is a no-op, not an error.
	require.NoError(t, f.coord.Cancel(ctx, "alice", "bob"))
}

func TestRemoveErasesBothDirections(t *testing.T) {
	f := newFixture(t, alice(), bob())
	ctx := context.Background()

	require.NoError(t, f.coord.SendRequest(ctx, "alice", "bob@example.com"))
	require.NoError(t, f.coord.Respond(ctx, "bob", social.RequestID("alice", "bob"), models.RequestAccepted))

	// Either side can remove; here the original receiver does.
	require.NoError(t, f.coord.Remove(ctx, "bob", "alice"))

	_, ok := f.edge(t, social.EdgeID("alice", "bob"))
	require.False(t, ok)
	_, ok = f.edge(t, social.EdgeID("bob", "alice"))
	require.False(t, ok)
	_, ok = f.request(t, social.RequestID("alice", "bob"))
	require.False(t, ok)
	_, ok = f.request(t, social.RequestID("bob", "alice"))
	require.False(t, ok)
}

func TestIncomingRequestsNewestFirst(t *testing.T) {
	carol := models.User{ID: "carol", Username: "Carol", Email: "carol@example.com"}
	f := newFixture(t, alice(), bob(), carol)
	ctx := context.Background()

	// Two invites to bob with distinct creation times.
	early := social.NewSocialCoordinator(f.store, f.users, nil,
		social.WithNow(func() time.Time { return testNow }))
	require.NoError(t, early.SendRequest(ctx, "alice", "bob@example.com"))

	late := social.NewSocialCoordinator(f.store, f.users, nil,
		social.WithNow(func() time.Time { return testNow.Add(time.Hour) }))
	require.NoError(t, late.SendRequest(ctx, "carol", "bob@example.com"))

	requests, err := f.coord.IncomingRequests(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, requests, 2)
	require.Equal(t, "carol", requests[0].SenderID)
	require.Equal(t, "alice", requests[1].SenderID)
}

func TestIncomingRequestsExcludesAnswered(t *testing.T) {
	f := newFixture(t, alice(), bob())
	ctx := context.Background()

	require.NoError(t, f.coord.SendRequest(ctx, "alice", "bob@example.com"))
	require.NoError(t, f.coord.Respond(ctx, "bob", social.RequestID("alice", "bob"), models.RequestAccepted))

	requests, err := f.coord.IncomingRequests(ctx, "bob")
	require.NoError(t, err)
	require.Empty(t, requests)
}

func TestListFriendsOrder(t *testing.T) {
	profiles := []models.User{
		{ID: "me", Username: "Me", Email: "me@example.com"},
		{ID: "zoe", Username: "Zoe", Email: "zoe@example.com", FreeNow: true},
		{ID: "adam", Username: "adam", Email: "adam@example.com"},
		{ID: "pete", Username: "Pete", Email: "pete@example.com"},
	}
	f := newFixture(t, profiles...)
	ctx := context.Background()

	// zoe and adam are accepted friends, pete is a pending invite.
	for _, peer := range []string{"zoe", "adam"} {
		require.NoError(t, f.coord.SendRequest(ctx, "me", peer+"@example.com"))
		require.NoError(t, f.coord.Respond(ctx, peer, social.RequestID("me", peer), models.RequestAccepted))
	}
	require.NoError(t, f.coord.SendRequest(ctx, "me", "pete@example.com"))

	views, err := f.coord.ListFriends(ctx, "me")
	require.NoError(t, err)
	require.Len(t, views, 3)

	// Free accepted friend first, then the busy one, invites last.
	require.Equal(t, "zoe", views[0].PeerID)
	require.True(t, views[0].FreeNow)
	require.Equal(t, "adam", views[1].PeerID)
	require.Equal(t, "pete", views[2].PeerID)
	require.Equal(t, models.EdgeInvited, views[2].Status)
}

func TestListFriendsSkipsVanishedProfiles(t *testing.T) {
	f := newFixture(t, alice(), bob())
	ctx := context.Background()

	require.NoError(t, f.coord.SendRequest(ctx, "alice", "bob@example.com"))
	require.NoError(t, f.store.Delete(ctx, models.UsersCollection, "bob"))

	views, err := f.coord.ListFriends(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, views)
}

func TestOperationsRequireIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.ErrorIs(t, f.coord.SendRequest(ctx, "", "bob@example.com"), social.ErrUnauthorized)
	require.ErrorIs(t, f.coord.Respond(ctx, "", "r", models.RequestAccepted), social.ErrUnauthorized)
	require.ErrorIs(t, f.coord.Cancel(ctx, "", "bob"), social.ErrUnauthorized)
	require.ErrorIs(t, f.coord.Remove(ctx, "", "bob"), social.ErrUnauthorized)
	_, err := f.coord.IncomingRequests(ctx, "")
	require.ErrorIs(t, err, social.ErrUnauthorized)
	_, err = f.coord.ListFriends(ctx, "")
	require.ErrorIs(t, err, social.ErrUnauthorized)
	_, err = f.coord.Friends(ctx, "")
	require.ErrorIs(t, err, social.ErrUnauthorized)
}
