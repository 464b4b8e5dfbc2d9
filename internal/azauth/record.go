package azauth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/veritak-io/azpim/internal/config"
)

const recordFileName = "auth-record.json"

// RecordStore persists the authentication record between runs. The record
// holds no secrets, only enough account metadata to find cached tokens.
type RecordStore struct {
	path string
}

// NewRecordStore returns a store rooted in the CLI config directory.
func NewRecordStore() (*RecordStore, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	return &RecordStore{path: filepath.Join(dir, recordFileName)}, nil
}

// NewRecordStoreAt returns a store backed by an explicit file path.
func NewRecordStoreAt(path string) *RecordStore {
	return &RecordStore{path: path}
}

// Path returns the backing file path.
func (s *RecordStore) Path() string {
	return s.path
}

// Load reads the persisted record. A missing file yields a zero record and
// no error, meaning no one has signed in yet.
func (s *RecordStore) Load() (azidentity.AuthenticationRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return azidentity.AuthenticationRecord{}, nil
	}
	if err != nil {
		return azidentity.AuthenticationRecord{}, fmt.Errorf("failed to read auth record: %w", err)
	}

	var record azidentity.AuthenticationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return azidentity.AuthenticationRecord{}, fmt.Errorf("failed to parse auth record %s: %w", s.path, err)
	}
	return record, nil
}

// Save writes the record, creating the parent directory if needed.
func (s *RecordStore) Save(record azidentity.AuthenticationRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode auth record: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write auth record: %w", err)
	}
	return nil
}

// Clear removes the persisted record. A missing file is not an error.
func (s *RecordStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove auth record: %w", err)
	}
	return nil
}
