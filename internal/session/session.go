// Package session remembers who is signed in to the CLI between
// invocations. The session is sealed with XChaCha20-Poly1305 under a random
// key kept in its own owner-only file.
package session

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"spendwise/internal/log"
)

var associatedData = []byte("spendwise-session-v1")

var (
	ErrNoSession = errors.New("no active session")
	ErrCorrupt   = errors.New("session file is corrupt")
)

type Session struct {
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	LoggedIn bool      `json:"logged_in"`
	IssuedAt time.Time `json:"issued_at"`
}

type Store struct {
	path    string
	keyPath string
	logger  *log.Logger
}

func NewStore(path, keyPath string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Store{
		path:    path,
		keyPath: keyPath,
		logger:  logger.WithComponent(log.ComponentSession),
	}
}

// Save seals s and replaces the session file.
func (st *Store) Save(s Session) error {
	aead, err := st.aead(true)
	if err != nil {
		return err
	}

	plain, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, plain, associatedData)

	if err := os.MkdirAll(filepath.Dir(st.path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	tmp := st.path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, st.path); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}

	st.logger.Debug("Session saved", log.FieldUserID, s.UserID)
	return nil
}

// Load returns the saved session, ErrNoSession when there is none or it
// was logged out.
func (st *Store) Load() (Session, error) {
	sealed, err := os.ReadFile(st.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}

	aead, err := st.aead(false)
	if errors.Is(err, fs.ErrNotExist) {
		// Key gone: the session can never be opened again.
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}

	if len(sealed) < aead.NonceSize() {
		return Session{}, ErrCorrupt
	}
	nonce, body := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, body, associatedData)
	if err != nil {
		st.logger.Warn("Session failed authentication", log.FieldError, err)
		return Session{}, ErrCorrupt
	}

	var s Session
	if err := json.Unmarshal(plain, &s); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !s.LoggedIn {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Clear removes the session file. The key is kept for the next login.
func (st *Store) Clear() error {
	err := os.Remove(st.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func (st *Store) aead(create bool) (cipher.AEAD, error) {
	key, err := st.key(create)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init session cipher: %w", err)
	}
	return aead, nil
}

func (st *Store) key(create bool) ([]byte, error) {
	key, err := os.ReadFile(st.keyPath)
	switch {
	case err == nil:
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("%w: key file has %d bytes", ErrCorrupt, len(key))
		}
		return key, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read session key: %w", err)
	case !create:
		return nil, err
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(st.keyPath), 0o700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	f, err := os.OpenFile(st.keyPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		// Another process created it first.
		return st.key(false)
	}
	if err != nil {
		return nil, fmt.Errorf("create session key: %w", err)
	}
	if _, err := f.Write(key); err != nil {
		f.Close()
		return nil, fmt.Errorf("write session key: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("write session key: %w", err)
	}

	st.logger.Info("Created session key", "path", st.keyPath)
	return key, nil
}
