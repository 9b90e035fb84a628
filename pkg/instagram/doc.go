// Package instagram is a small client for the parts of Instagram's web API
// needed to withdraw follow requests with an existing browser session.
//
// The client authenticates with the sessionid and csrftoken cookies of a
// logged-in browser session; it never performs a password login. Requests
// are paced client-side with a token bucket and are never retried. Failures
// are returned as *errors.Error values typed by HTTP status or response
// body.
//
// Example usage:
//
//	client := instagram.NewClient(instagram.Options{
//		SessionID: account.SessionID,
//		CSRFToken: account.CSRFToken,
//		RequestsPerMinute: 60,
//		Burst: 5,
//	}, log)
//
//	if _, err := client.VerifySession(ctx); err != nil {
//		return err
//	}
//
//	userID, err := client.ResolveUserID(ctx, "some_user")
//	if err != nil {
//		return err
//	}
//	err = client.CancelFollowRequest(ctx, userID)
package instagram
