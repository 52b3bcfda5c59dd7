package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"flickrdl/pkg/flickr"
)

// Token is a stored Flickr OAuth access token and the account it belongs to
type Token struct {
	Username     string    `json:"username"`
	NSID         string    `json:"nsid"`
	FullName     string    `json:"full_name,omitempty"`
	OAuthToken   string    `json:"oauth_token"`
	OAuthSecret  string    `json:"oauth_secret"`
	LastModified time.Time `json:"last_modified"`
}

// TokenFromAccess converts the result of the OAuth flow into a Token
func TokenFromAccess(at *flickr.AccessToken) *Token {
	return &Token{
		Username:    at.Username,
		NSID:        at.NSID,
		FullName:    at.FullName,
		OAuthToken:  at.Token,
		OAuthSecret: at.Secret,
	}
}

// Credentials combines the token with the application key pair
func (t *Token) Credentials(apiKey, apiSecret string) flickr.Credentials {
	return flickr.Credentials{
		APIKey:      apiKey,
		APISecret:   apiSecret,
		OAuthToken:  t.OAuthToken,
		OAuthSecret: t.OAuthSecret,
	}
}

// CredentialStore is the interface for storing and retrieving tokens
type CredentialStore interface {
	// Store saves the token for its username
	Store(token *Token) error

	// Retrieve gets the token for a specific username
	Retrieve(username string) (*Token, error)

	// List returns all stored tokens
	List() ([]*Token, error)

	// Delete removes the token for a specific username
	Delete(username string) error

	// Exists checks if a token exists for a username
	Exists(username string) bool
}

// Manager handles token storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a token manager using the system keychain when it is
// available, an encrypted file and the environment
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager over the given stores, tried in order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the token using the first store that accepts it
func (m *Manager) Store(token *Token) error {
	if token == nil || token.Username == "" {
		return errors.New("username is required")
	}
	if token.OAuthToken == "" {
		return errors.New("OAuth token is required")
	}
	if token.OAuthSecret == "" {
		return errors.New("OAuth token secret is required")
	}

	token.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(token); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets the token from the first store that has it
func (m *Manager) Retrieve(username string) (*Token, error) {
	for _, store := range m.stores {
		if token, err := store.Retrieve(username); err == nil && token != nil {
			return token, nil
		}
	}
	return nil, fmt.Errorf("%w for user: %s", ErrCredentialsNotFound, username)
}

// RetrieveDefault returns the environment token when set, otherwise the most
// recently stored token
func (m *Manager) RetrieveDefault() (*Token, error) {
	for _, store := range m.stores {
		if envStore, ok := store.(*EnvironmentStore); ok {
			if token, err := envStore.Retrieve(""); err == nil && token != nil {
				return token, nil
			}
		}
	}

	tokens, err := m.List()
	if err == nil && len(tokens) > 0 {
		latest := tokens[0]
		for _, t := range tokens[1:] {
			if t.LastModified.After(latest.LastModified) {
				latest = t
			}
		}
		return latest, nil
	}

	return nil, ErrCredentialsNotFound
}

// List returns all stored tokens from all stores, sorted by username
func (m *Manager) List() ([]*Token, error) {
	byUser := make(map[string]*Token)

	for _, store := range m.stores {
		tokens, err := store.List()
		if err != nil {
			continue
		}
		for _, token := range tokens {
			if existing, ok := byUser[token.Username]; !ok || token.LastModified.After(existing.LastModified) {
				byUser[token.Username] = token
			}
		}
	}

	result := make([]*Token, 0, len(byUser))
	for _, token := range byUser {
		result = append(result, token)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Username < result[j].Username
	})

	return result, nil
}

// Delete removes the token from all stores
func (m *Manager) Delete(username string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(username); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w for user: %s", ErrCredentialsNotFound, username)
	}

	return nil
}

// DeleteAll removes every stored token
func (m *Manager) DeleteAll() error {
	tokens, err := m.List()
	if err != nil {
		return err
	}

	for _, token := range tokens {
		_ = m.Delete(token.Username)
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "flickrdl")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "flickrdl")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "flickrdl")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "flickrdl")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeToken returns a copy of token with the secrets masked
func SanitizeToken(token *Token) *Token {
	if token == nil {
		return nil
	}

	return &Token{
		Username:     token.Username,
		NSID:         token.NSID,
		FullName:     token.FullName,
		OAuthToken:   maskString(token.OAuthToken),
		OAuthSecret:  maskString(token.OAuthSecret),
		LastModified: token.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
