package api

import (
	"sync"

	"github.com/google/uuid"

	"github.com/utasoy/market-reconciler/internal/domain"
)

// resultStore holds the internal/supplier consolidation outputs of
// /calculate_stock and /consolidate_suppliers between that call and the
// later /process_marketplace call that references them by key, in
// memory rather than round-tripped through a JSON file on disk.
type resultStore struct {
	mu       sync.Mutex
	internal map[string]internalResult
	supplier map[string]supplierResult
}

type internalResult struct {
	Rows []domain.InternalRow
	Meta map[string]int
}

type supplierResult struct {
	Rows []domain.SupplierRow
	Meta map[string]int
}

func newResultStore() *resultStore {
	return &resultStore{
		internal: map[string]internalResult{},
		supplier: map[string]supplierResult{},
	}
}

func (s *resultStore) putInternal(rows []domain.InternalRow, meta map[string]int) string {
	key := uuid.NewString()
	s.mu.Lock()
	s.internal[key] = internalResult{Rows: rows, Meta: meta}
	s.mu.Unlock()
	return key
}

func (s *resultStore) putSupplier(rows []domain.SupplierRow, meta map[string]int) string {
	key := uuid.NewString()
	s.mu.Lock()
	s.supplier[key] = supplierResult{Rows: rows, Meta: meta}
	s.mu.Unlock()
	return key
}

func (s *resultStore) getInternal(key string) ([]domain.InternalRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.internal[key]
	return r.Rows, ok
}

func (s *resultStore) getSupplier(key string) ([]domain.SupplierRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.supplier[key]
	return r.Rows, ok
}
