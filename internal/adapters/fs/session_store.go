package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// SessionStoreAdapter keeps one JSON file per transaction under
// <data dir>/sessions/<safeTxHash>.json
type SessionStoreAdapter struct {
	dir string
	mu  sync.Mutex
}

// NewSessionStoreAdapter creates a new SessionStoreAdapter
func NewSessionStoreAdapter(cfg *config.RuntimeConfig) *SessionStoreAdapter {
	return &SessionStoreAdapter{
		dir: filepath.Join(cfg.DataDir, "sessions"),
	}
}

func (s *SessionStoreAdapter) path(hash common.Hash) string {
	return filepath.Join(s.dir, hash.Hex()+".json")
}

// Save writes the session, replacing any previous version atomically
func (s *SessionStoreAdapter) Save(ctx context.Context, tx *models.SafeTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create sessions directory: %w", err)
	}

	data, err := json.MarshalIndent(tx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".session-*")
	if err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(tx.SafeTxHash)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Load reads the session stored for safeTxHash
func (s *SessionStoreAdapter) Load(ctx context.Context, safeTxHash common.Hash) (*models.SafeTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read(s.path(safeTxHash), safeTxHash)
}

func (s *SessionStoreAdapter) read(path string, hash common.Hash) (*models.SafeTransaction, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from a hash
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", hash.Hex(), domain.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var tx models.SafeTransaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", filepath.Base(path), err)
	}
	return &tx, nil
}

// List returns every stored session in no particular order
func (s *SessionStoreAdapter) List(ctx context.Context) ([]*models.SafeTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var txs []*models.SafeTransaction
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		hash := common.HexToHash(strings.TrimSuffix(name, ".json"))
		tx, err := s.read(filepath.Join(s.dir, name), hash)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// GetPath returns the sessions directory
func (s *SessionStoreAdapter) GetPath() string {
	return s.dir
}

var _ usecase.SessionStore = (*SessionStoreAdapter)(nil)
