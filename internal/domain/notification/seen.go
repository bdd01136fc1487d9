package notification

import (
	"encoding/json"
	"sort"
	"strings"
)

// SeenSet holds the notification ids a client has acknowledged. It lives on the
// client; the server only receives it as input and never persists it.
type SeenSet map[string]struct{}

func NewSeenSet(ids ...string) SeenSet {
	s := make(SeenSet, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

// ParseSeenSet reads a comma-separated id list, as sent in the seen query parameter.
func ParseSeenSet(raw string) SeenSet {
	if raw == "" {
		return NewSeenSet()
	}
	return NewSeenSet(strings.Split(raw, ",")...)
}

func (s SeenSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// With returns a copy of s that also contains id.
func (s SeenSet) With(id string) SeenSet {
	out := make(SeenSet, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	out[id] = struct{}{}
	return out
}

// Retain returns the ids of s that are present in keep.
func (s SeenSet) Retain(keep map[string]struct{}) SeenSet {
	out := make(SeenSet, len(s))
	for id := range s {
		if _, ok := keep[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// IDs returns the members in ascending order.
func (s SeenSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s SeenSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}
