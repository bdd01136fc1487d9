// Package notification derives the notification feed from friend request buckets.
// Everything here is pure: the same sources and seen set always yield the same feed.
package notification

import (
	"sort"
	"strings"
	"time"

	"github.com/oksasatya/langbridge/internal/domain/entity"
)

type Type string

const (
	TypeIncoming Type = "incoming"
	TypeOutgoing Type = "outgoing"
	TypeAccepted Type = "accepted"
	TypeRejected Type = "rejected"
)

// Sources are the request buckets the feed is built from, as seen by ViewerID.
type Sources struct {
	ViewerID string
	Incoming []*entity.FriendRequest
	Outgoing []*entity.FriendRequest
	Accepted []*entity.FriendRequest
	Rejected []*entity.FriendRequest
}

// Item is one feed entry.
type Item struct {
	ID        string                `json:"id"`
	Type      Type                  `json:"notification_type"`
	Timestamp time.Time             `json:"timestamp"`
	Message   string                `json:"message"`
	Other     *entity.UserSummary   `json:"other_user"`
	Request   *entity.FriendRequest `json:"request"`
}

// Feed is the projection result. Seen is the caller's seen set pruned to ids
// still present in the sources; the caller should keep it in place of its old set.
type Feed struct {
	Items  []Item  `json:"items"`
	Seen   SeenSet `json:"seen"`
	Unread int     `json:"unread"`
}

// Timestamp ranks a request by its last change, so a status transition resurfaces it.
func Timestamp(r *entity.FriendRequest) time.Time {
	if !r.UpdatedAt.IsZero() {
		return r.UpdatedAt
	}
	return r.CreatedAt
}

// Build merges the buckets into one feed ordered newest first. Equal timestamps
// are ordered by id ascending. When an id shows up in more than one bucket the
// entry with the later timestamp is kept.
func Build(src Sources, seen SeenSet) Feed {
	byID := make(map[string]Item)
	add := func(t Type, reqs []*entity.FriendRequest) {
		for _, r := range reqs {
			if r == nil {
				continue
			}
			it, ok := newItem(src.ViewerID, t, r)
			if !ok {
				continue
			}
			if prev, dup := byID[it.ID]; dup && !it.Timestamp.After(prev.Timestamp) {
				continue
			}
			byID[it.ID] = it
		}
	}
	add(TypeIncoming, src.Incoming)
	add(TypeOutgoing, src.Outgoing)
	add(TypeAccepted, src.Accepted)
	add(TypeRejected, src.Rejected)

	pruned := seen.Retain(sourceIDs(src))

	items := make([]Item, 0, len(byID))
	for id, it := range byID {
		if pruned.Has(id) {
			continue
		}
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Timestamp.Equal(items[j].Timestamp) {
			return items[i].Timestamp.After(items[j].Timestamp)
		}
		return items[i].ID < items[j].ID
	})
	return Feed{Items: items, Seen: pruned, Unread: len(items)}
}

func sourceIDs(src Sources) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, bucket := range [][]*entity.FriendRequest{src.Incoming, src.Outgoing, src.Accepted, src.Rejected} {
		for _, r := range bucket {
			if r != nil {
				ids[r.ID] = struct{}{}
			}
		}
	}
	return ids
}

// newItem tags r. Requests whose counterpart could not be populated are dropped.
func newItem(viewerID string, t Type, r *entity.FriendRequest) (Item, bool) {
	isSender := r.SenderID == viewerID
	other := r.Sender
	if isSender {
		other = r.Recipient
	}
	if other == nil {
		return Item{}, false
	}
	return Item{
		ID:        r.ID,
		Type:      t,
		Timestamp: Timestamp(r),
		Message:   message(t, isSender, other.FullName),
		Other:     other,
		Request:   r,
	}, true
}

func message(t Type, isSender bool, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Someone"
	}
	switch t {
	case TypeIncoming:
		return name + " sent you a friend request"
	case TypeOutgoing:
		return "Friend request sent to " + name
	case TypeAccepted:
		if isSender {
			return name + " accepted your friend request"
		}
		return "You accepted " + name + "'s friend request"
	case TypeRejected:
		if isSender {
			return name + " rejected your friend request"
		}
		return "You rejected " + name + "'s friend request"
	}
	return ""
}
