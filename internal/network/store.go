package network

import (
	"sync"

	"github.com/mrz1836/swapdesk/internal/fileutil"
)

// statePerm is the permission used for the persisted state file.
const statePerm = 0o600

// persisted is the on-disk shape of the client state file.
type persisted struct {
	ActiveNetworkID string `json:"activeNetworkId"`
}

// Store persists the selected network id.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store writing to path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted network id, or "" when nothing is stored.
func (s *Store) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p persisted
	if _, err := fileutil.ReadJSON(s.path, &p); err != nil {
		return "", err
	}
	return p.ActiveNetworkID, nil
}

// Save persists id.
func (s *Store) Save(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fileutil.WriteJSON(s.path, persisted{ActiveNetworkID: id}, statePerm)
}
