package auth

import (
	"sync"

	"github.com/unkn0wn-root/reqrun/internal/model"
)

// MemoryCertificates is the in-process certificate store. A missing id
// resolves to nil, nil: the injector treats that as a soft no-op.
type MemoryCertificates struct {
	mu   sync.RWMutex
	byID map[string]model.Certificate
}

func NewMemoryCertificates(certs ...model.Certificate) *MemoryCertificates {
	store := &MemoryCertificates{byID: make(map[string]model.Certificate, len(certs))}
	for _, cert := range certs {
		store.byID[cert.ID] = cert
	}
	return store
}

func (s *MemoryCertificates) Add(cert model.Certificate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[cert.ID] = cert
}

func (s *MemoryCertificates) Read(id string) (*model.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cert, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &cert, nil
}
