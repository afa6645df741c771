package model

import "strings"

// Path represents a file system path.
type Path string

// Target is a document address: an http(s) URL compared through a live
// browser session, or a local file path compared from a saved snapshot.
type Target string

// IsLive reports whether the target needs a browser session.
func (t Target) IsLive() bool {
	s := strings.ToLower(string(t))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
