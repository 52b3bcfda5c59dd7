package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/renameio/v2"
	"golang.org/x/crypto/pbkdf2"
)

// EnvPassphrase overrides the generated encryption passphrase
const EnvPassphrase = "FLICKRDL_PASSPHRASE"

const (
	sealedVersion  = 1
	saltLen        = 16
	pbkdf2Rounds   = 100000
	passphraseFile = ".passphrase"
)

// sealedFile is the on-disk layout. Sealed holds the GCM nonce followed by
// the encrypted JSON map of tokens keyed by username.
type sealedFile struct {
	Version int    `json:"version"`
	Salt    []byte `json:"salt"`
	Sealed  []byte `json:"sealed"`
}

// EncryptedFileStore keeps tokens in a single AES-256-GCM sealed file. The
// key is derived with PBKDF2 from FLICKRDL_PASSPHRASE or from a passphrase
// generated next to the file on first use.
type EncryptedFileStore struct {
	path       string
	passphrase []byte
	mu         sync.Mutex
}

// NewEncryptedFileStore opens the store at path, creating its directory
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	pass, err := loadPassphrase(dir)
	if err != nil {
		return nil, err
	}
	return &EncryptedFileStore{path: path, passphrase: pass}, nil
}

func (e *EncryptedFileStore) Store(token *Token) error {
	if token == nil || token.Username == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(tokens map[string]Token) error {
		tokens[token.Username] = *token
		return nil
	})
}

func (e *EncryptedFileStore) Retrieve(username string) (*Token, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.Lock()
	tokens, err := e.read()
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	token, ok := tokens[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &token, nil
}

func (e *EncryptedFileStore) List() ([]*Token, error) {
	e.mu.Lock()
	tokens, err := e.read()
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(tokens))
	for name := range tokens {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Token, 0, len(names))
	for _, name := range names {
		token := tokens[name]
		out = append(out, &token)
	}
	return out, nil
}

// Delete removes username. The file goes away with the last token.
func (e *EncryptedFileStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(tokens map[string]Token) error {
		if _, ok := tokens[username]; !ok {
			return ErrCredentialsNotFound
		}
		delete(tokens, username)
		return nil
	})
}

func (e *EncryptedFileStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}

// update applies fn to the stored tokens and writes the result back
func (e *EncryptedFileStore) update(fn func(map[string]Token) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tokens, err := e.read()
	if err != nil {
		return err
	}
	if err := fn(tokens); err != nil {
		return err
	}

	if len(tokens) == 0 {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return e.write(tokens)
}

// read opens the sealed file. A missing file is an empty store.
func (e *EncryptedFileStore) read() (map[string]Token, error) {
	tokens := make(map[string]Token)

	content, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return tokens, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var f sealedFile
	if err := json.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	gcm, err := e.aead(f.Salt)
	if err != nil {
		return nil, err
	}
	n := gcm.NonceSize()
	if len(f.Sealed) < n {
		return nil, errors.New("credentials file is truncated")
	}
	plain, err := gcm.Open(nil, f.Sealed[:n], f.Sealed[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials (wrong passphrase?): %w", err)
	}

	if err := json.Unmarshal(plain, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse tokens: %w", err)
	}
	return tokens, nil
}

// write seals tokens under a fresh salt and nonce and replaces the file
func (e *EncryptedFileStore) write(tokens map[string]Token) error {
	plain, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}

	salt, err := randomBytes(saltLen)
	if err != nil {
		return err
	}
	gcm, err := e.aead(salt)
	if err != nil {
		return err
	}
	nonce, err := randomBytes(gcm.NonceSize())
	if err != nil {
		return err
	}

	content, err := json.MarshalIndent(sealedFile{
		Version: sealedVersion,
		Salt:    salt,
		Sealed:  gcm.Seal(nonce, nonce, plain, nil),
	}, "", "  ")
	if err != nil {
		return err
	}

	if err := renameio.WriteFile(e.path, content, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

func (e *EncryptedFileStore) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(e.passphrase, salt, pbkdf2Rounds, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// loadPassphrase returns FLICKRDL_PASSPHRASE, or the passphrase file in dir,
// generating it on first use
func loadPassphrase(dir string) ([]byte, error) {
	if pass := os.Getenv(EnvPassphrase); pass != "" {
		return []byte(pass), nil
	}

	path := filepath.Join(dir, passphraseFile)
	if content, err := os.ReadFile(path); err == nil && len(content) > 0 {
		return content, nil
	}

	raw, err := randomBytes(32)
	if err != nil {
		return nil, err
	}
	pass := []byte(base64.RawURLEncoding.EncodeToString(raw))
	if err := renameio.WriteFile(path, pass, 0600); err != nil {
		return nil, fmt.Errorf("failed to save passphrase: %w", err)
	}
	return pass, nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}
