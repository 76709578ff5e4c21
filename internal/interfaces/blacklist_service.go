package interfaces

import "context"

// BlacklistService provides read access to the externally owned set of
// rejected image URLs. The engine only checks membership; flagging new URLs
// happens upstream. The local snapshot is eventually consistent - a stale
// view may let a bad image through once.
type BlacklistService interface {
	// Contains reports whether the URL is blacklisted in the local snapshot
	Contains(url string) bool

	// Refresh fetches the latest snapshot from the remote store and
	// persists it locally
	Refresh(ctx context.Context) error

	// Size returns the number of URLs in the local snapshot
	Size() int
}
