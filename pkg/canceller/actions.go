package canceller

import (
	"context"
	"errors"

	"igcancel/pkg/batch"
	errs "igcancel/pkg/errors"
	"igcancel/pkg/logger"
)

// APIAction cancels follow requests through the Instagram web API
type APIAction struct {
	client InstagramClient
	logger logger.Logger
}

// NewAPIAction creates an action bound to one client session
func NewAPIAction(client InstagramClient, log logger.Logger) *APIAction {
	if log == nil {
		log = logger.GetLogger()
	}
	return &APIAction{client: client, logger: log}
}

// Cancel resolves username and withdraws the pending request
func (a *APIAction) Cancel(ctx context.Context, username string) batch.Outcome {
	log := a.logger.WithField("username", username)

	userID, err := a.client.ResolveUserID(ctx, username)
	if err != nil {
		reason := reasonFor(err)
		log.WithError(err).WarnWithFields("Could not resolve user", map[string]interface{}{
			"reason": string(errs.TypeOf(reason)),
		})
		return batch.Failed(reason)
	}

	if err := a.client.CancelFollowRequest(ctx, userID); err != nil {
		reason := reasonFor(err)
		log.WithError(err).WarnWithFields("Cancel failed", map[string]interface{}{
			"user_id": userID,
			"reason":  string(errs.TypeOf(reason)),
		})
		return batch.Failed(reason)
	}

	log.DebugWithFields("Cancelled follow request", map[string]interface{}{"user_id": userID})
	return batch.Succeeded()
}

// reasonFor makes sure every failure reason carries an error type
func reasonFor(err error) error {
	var typed *errs.Error
	if errors.As(err, &typed) {
		return err
	}
	return errs.Wrap(errs.TypeOf(err), err.Error(), err)
}

// DryRunAction reports success without contacting Instagram
type DryRunAction struct {
	Logger logger.Logger
}

// Cancel logs the identifier and succeeds
func (a DryRunAction) Cancel(ctx context.Context, username string) batch.Outcome {
	if a.Logger != nil {
		a.Logger.InfoWithFields("Dry run: would cancel follow request", map[string]interface{}{
			"username": username,
		})
	}
	return batch.Succeeded()
}
