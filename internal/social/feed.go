package social

import (
	"context"
	"sort"
	"strings"
	"sync"

	"availability-service/internal/logger"
	"availability-service/internal/models"
	"availability-service/internal/store"
)

// FriendFeed is the live friends view: the owner's edge set joined with
// a per-peer profile subscription. Peer subscriptions are keyed by peer
// id so repeated edge snapshots never duplicate them, and each one is
// released exactly once, when its edge disappears or on Close.
type FriendFeed struct {
	store   store.Store
	edgeSub store.Subscription

	mu     sync.Mutex
	closed bool
	edges  map[string]models.FriendEdge
	peers  map[string]*peerWatch

	out       chan []models.FriendView
	closeOnce sync.Once
}

type peerWatch struct {
	sub   store.Subscription
	user  models.User
	known bool
}

func newFriendFeed(st store.Store, edgeSub store.Subscription) *FriendFeed {
	return &FriendFeed{
		store:   st,
		edgeSub: edgeSub,
		edges:   make(map[string]models.FriendEdge),
		peers:   make(map[string]*peerWatch),
		out:     make(chan []models.FriendView, 1),
	}
}

// Snapshots delivers the re-sorted view on every edge or peer-status
// change. Undelivered snapshots are replaced by newer ones.
func (f *FriendFeed) Snapshots() <-chan []models.FriendView { return f.out }

// Close tears the view down: edge subscription, all peer
// subscriptions, then the output channel. Safe to call twice.
func (f *FriendFeed) Close() {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		for peer, w := range f.peers {
			w.sub.Close()
			delete(f.peers, peer)
		}
		f.mu.Unlock()
		f.edgeSub.Close()
		close(f.out)
	})
}

func (f *FriendFeed) run() {
	for docs := range f.edgeSub.Snapshots() {
		f.applyEdges(docs)
	}
}

func (f *FriendFeed) applyEdges(docs []store.Doc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}

	edges := make(map[string]models.FriendEdge, len(docs))
	for _, doc := range docs {
		var edge models.FriendEdge
		if err := doc.Decode(&edge); err != nil {
			logger.Warnf("friend feed: decode edge: %v", err)
			continue
		}
		edges[edge.PeerID] = edge
	}
	f.edges = edges

	// Drop watches for peers whose edge is gone.
	for peer, w := range f.peers {
		if _, ok := edges[peer]; !ok {
			w.sub.Close()
			delete(f.peers, peer)
		}
	}

	// Open watches for peers that just appeared.
	for peer := range edges {
		if _, ok := f.peers[peer]; ok {
			continue
		}
		sub, err := f.store.LiveQuery(context.Background(), models.UsersCollection, store.Filter{"_id": peer})
		if err != nil {
			logger.Warnf("friend feed: watch peer %s: %v", peer, err)
			continue
		}
		f.peers[peer] = &peerWatch{sub: sub}
		go f.watchPeer(peer, sub)
	}

	f.emitLocked()
}

func (f *FriendFeed) watchPeer(peer string, sub store.Subscription) {
	for docs := range sub.Snapshots() {
		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return
		}
		w, ok := f.peers[peer]
		if !ok || w.sub != sub {
			f.mu.Unlock()
			return
		}
		if len(docs) > 0 {
			if err := docs[0].Decode(&w.user); err != nil {
				logger.Warnf("friend feed: decode peer %s: %v", peer, err)
			} else {
				w.known = true
			}
		} else {
			w.known = false
		}
		f.emitLocked()
		f.mu.Unlock()
	}
}

func (f *FriendFeed) emitLocked() {
	views := make([]models.FriendView, 0, len(f.edges))
	for peer, edge := range f.edges {
		w, ok := f.peers[peer]
		if !ok || !w.known {
			continue
		}
		views = append(views, models.FriendView{
			PeerID:   peer,
			Username: w.user.Username,
			Status:   edge.Status,
			FreeNow:  w.user.FreeNow,
		})
	}
	sortViews(views)

	select {
	case <-f.out:
	default:
	}
	select {
	case f.out <- views:
	default:
	}
}

// sortViews applies the fixed friends-list order: accepted friendships
// before pending invites, free friends first among the accepted, names
// case-insensitive as the tie break.
func sortViews(views []models.FriendView) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if a.Status != b.Status {
			return a.Status == models.EdgeAccepted
		}
		if a.Status == models.EdgeAccepted && a.FreeNow != b.FreeNow {
			return a.FreeNow
		}
		return strings.ToLower(a.Username) < strings.ToLower(b.Username)
	})
}

func sortRequests(requests []models.FriendRequest) {
	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
}
