// Package store holds the most recent completed backtest result for the
// API's read-only projections, and exports results to disk.
package store

import (
	"sync"

	"github.com/petroquant/crudesim/internal/types"
	"github.com/petroquant/crudesim/pkg/errors"
)

// ResultStore keeps the last completed BacktestResult. Results are
// immutable after completion, so a plain RWMutex around the pointer is all
// the synchronization concurrent API readers need.
type ResultStore struct {
	mu   sync.RWMutex
	last *types.BacktestResult
}

// NewResultStore creates an empty store.
func NewResultStore() *ResultStore {
	return &ResultStore{}
}

// Put replaces the stored result with a newly completed run.
func (s *ResultStore) Put(result *types.BacktestResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = result
}

// Last returns the most recent completed result, or a data-not-found error
// when no run has completed yet.
func (s *ResultStore) Last() (*types.BacktestResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return nil, errors.New(errors.ErrCodeDataNotFound, "no completed backtest result available")
	}

	return s.last, nil
}
