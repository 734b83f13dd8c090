package document

import "context"

// SignatureCache holds inlined signature images for the lifetime of a
// document session. Entries are keyed by session and asset id; closing a
// session drops all of its entries.
type SignatureCache interface {
	// Get returns the cached image and whether it was present
	Get(ctx context.Context, sessionID, assetID string) (InlinedImage, bool, error)

	// Set stores an image for the session
	Set(ctx context.Context, sessionID, assetID string, img InlinedImage) error

	// Clear evicts every entry of the session
	Clear(ctx context.Context, sessionID string) error

	// Close releases resources
	Close() error
}
