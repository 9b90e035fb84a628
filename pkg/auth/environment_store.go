package auth

import (
	"os"
	"time"
)

const (
	envSessionID = "IGCANCEL_SESSION_ID"
	envCSRFToken = "IGCANCEL_CSRF_TOKEN"
	envUserAgent = "IGCANCEL_USER_AGENT"
	envUsername  = "IGCANCEL_USERNAME"
)

// EnvironmentStore reads a single read-only account from IGCANCEL_*
// variables, which is convenient for scripted runs.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment account. A non-empty username must match
// IGCANCEL_USERNAME when that is set.
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	sessionID := os.Getenv(envSessionID)
	csrfToken := os.Getenv(envCSRFToken)
	if sessionID == "" || csrfToken == "" {
		return nil, ErrCredentialsNotFound
	}

	envName := os.Getenv(envUsername)
	switch {
	case username == "" && envName != "":
		username = envName
	case username == "":
		username = "default"
	case envName != "" && envName != username:
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Username:     username,
		SessionID:    sessionID,
		CSRFToken:    csrfToken,
		UserAgent:    os.Getenv(envUserAgent),
		LastModified: time.Now(),
	}, nil
}

// List returns the environment account if one is configured
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
