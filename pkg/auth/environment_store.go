package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvOAuthToken  = "FLICKRDL_OAUTH_TOKEN"
	EnvOAuthSecret = "FLICKRDL_OAUTH_SECRET"
	EnvUsername    = "FLICKRDL_USERNAME"
)

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(token *Token) error {
	return ErrStoreUnavailable
}

// Retrieve builds a token from environment variables. The username is taken
// from FLICKRDL_USERNAME, then the argument, then "default".
func (e *EnvironmentStore) Retrieve(username string) (*Token, error) {
	oauthToken := os.Getenv(EnvOAuthToken)
	oauthSecret := os.Getenv(EnvOAuthSecret)

	if oauthToken == "" || oauthSecret == "" {
		return nil, ErrCredentialsNotFound
	}

	if envUser := os.Getenv(EnvUsername); envUser != "" {
		username = envUser
	}
	if username == "" {
		username = "default"
	}

	return &Token{
		Username:     username,
		OAuthToken:   oauthToken,
		OAuthSecret:  oauthSecret,
		LastModified: time.Now(),
	}, nil
}

// List returns a single token if environment variables are set
func (e *EnvironmentStore) List() ([]*Token, error) {
	token, err := e.Retrieve("")
	if err != nil {
		return []*Token{}, nil
	}
	return []*Token{token}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(username string) bool {
	return os.Getenv(EnvOAuthToken) != "" && os.Getenv(EnvOAuthSecret) != ""
}
