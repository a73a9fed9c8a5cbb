package metadatastore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps DDOs in process. It is safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	docs      map[DID]*DDO
	accessURL string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store whose GetAccessURL always returns accessURL.
func NewMemoryStore(accessURL string) *MemoryStore {
	return &MemoryStore{
		docs:      make(map[DID]*DDO),
		accessURL: accessURL,
	}
}

// StoreDDO stores a copy of ddo, replacing any document with the same DID.
func (s *MemoryStore) StoreDDO(ctx context.Context, ddo *DDO) (*DDO, error) {
	if err := ddo.Validate(); err != nil {
		return nil, err
	}
	stored := ddo.clone()
	stored.ID, _ = ParseDID(string(ddo.ID))

	s.mu.Lock()
	s.docs[stored.ID] = stored
	s.mu.Unlock()
	return stored.clone(), nil
}

// RetrieveDDO returns a copy of the document stored under did.
func (s *MemoryStore) RetrieveDDO(ctx context.Context, did DID) (*DDO, error) {
	id, err := ParseDID(string(did))
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ddo, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ddo.clone(), nil
}

// GetAccessURL returns the configured access URL.
func (s *MemoryStore) GetAccessURL(ctx context.Context, token AccessToken, payload any) (string, error) {
	if s.accessURL == "" {
		return "", ErrAccessUnsupported
	}
	return s.accessURL, nil
}

// DIDs lists the stored DIDs in lexical order.
func (s *MemoryStore) DIDs() []DID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DID, 0, len(s.docs))
	for id := range s.docs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
