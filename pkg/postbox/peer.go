package postbox

import "strings"

// Peer holds the fields a t2 peer record exposes. Every field is optional;
// absent fields stay empty.
type Peer struct {
	FirstName string
	LastName  string
	Username  string
	Title     string
	Phone     string
}

// ParsePeer extracts peer fields from a t2 value blob. The outer stream
// carries a single root object under the key "_"; its payload is a nested
// stream whose short keys map to the semantic fields (fn, ln, un, t, p).
// A missing or malformed envelope yields an all-empty Peer, never an error.
func ParsePeer(data []byte) Peer {
	root, ok := NewDecoder(data).Seek("_", TypeObject)
	if !ok {
		return Peer{}
	}
	inner, _ := root.V.([]byte)
	fields := NewDecoder(inner).DecodeAll()
	return Peer{
		FirstName: fieldString(fields, "fn"),
		LastName:  fieldString(fields, "ln"),
		Username:  fieldString(fields, "un"),
		Title:     fieldString(fields, "t"),
		Phone:     fieldString(fields, "p"),
	}
}

func fieldString(fields map[string]Value, key string) string {
	if v, ok := fields[key]; ok {
		if s, ok := v.V.(string); ok {
			return s
		}
	}
	return ""
}

// DisplayName builds a human-readable name: title for groups and channels,
// then "first last", then "@username", then "Unknown".
func (p Peer) DisplayName() string {
	if p.Title != "" {
		return p.Title
	}
	if name := strings.TrimSpace(p.FirstName + " " + p.LastName); name != "" {
		return name
	}
	if p.Username != "" {
		return "@" + p.Username
	}
	return "Unknown"
}
