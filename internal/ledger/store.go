package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dennisgathu8/house-hedge/pkg/models"
)

// Store persists the full bet sequence. Save always receives the whole ledger.
type Store interface {
	Load(ctx context.Context) ([]models.Bet, error)
	Save(ctx context.Context, bets []models.Bet) error
}

// FileStore keeps the ledger as a JSON array of bets in a single file
type FileStore struct {
	path string
}

// NewFileStore creates a file store at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the snapshot. A missing or empty file is an empty ledger.
func (s *FileStore) Load(_ context.Context) ([]models.Bet, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger snapshot: %w", err)
	}

	var bets []models.Bet
	if err := json.Unmarshal(data, &bets); err != nil {
		return nil, fmt.Errorf("failed to parse ledger snapshot %s: %w", s.path, err)
	}
	return bets, nil
}

// Save writes the snapshot to a temp file and renames it over the previous one
func (s *FileStore) Save(_ context.Context, bets []models.Bet) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	if bets == nil {
		bets = []models.Bet{}
	}
	data, err := json.MarshalIndent(bets, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write ledger snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace ledger snapshot: %w", err)
	}

	return nil
}
