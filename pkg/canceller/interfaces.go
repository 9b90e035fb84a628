package canceller

import "context"

// InstagramClient defines the Instagram API operations a cancellation needs
type InstagramClient interface {
	ResolveUserID(ctx context.Context, username string) (string, error)
	CancelFollowRequest(ctx context.Context, userID string) error
}
