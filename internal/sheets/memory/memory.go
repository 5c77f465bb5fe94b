// Package memory is an in-process gateway used when no spreadsheet is
// configured, and as the fake in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"wydatki/internal/core"
	ports "wydatki/internal/sheets"
)

type Store struct {
	mu       sync.Mutex
	taxonomy core.Taxonomy
	// amounts holds the authoritative ledger state per month and day.
	amounts map[string]map[int]core.DayAmounts

	// Failure injection for tests.
	TaxonomyErr   error
	DayAmountsErr error
	// WriteFailures makes the next N writes fail with WriteErr.
	WriteFailures int
	WriteErr      error

	fetchTaxonomyCalls   int
	fetchDayAmountsCalls int
	writeCalls           int
	invalidatedMonths    []string
}

// Ensure interface conformance
var (
	_ ports.TaxonomyFetcher   = (*Store)(nil)
	_ ports.DayAmountsFetcher = (*Store)(nil)
	_ ports.ExpenseWriter     = (*Store)(nil)
	_ ports.GridInvalidator   = (*Store)(nil)
)

func New(taxonomy core.Taxonomy) *Store {
	return &Store{
		taxonomy: taxonomy,
		amounts:  make(map[string]map[int]core.DayAmounts),
	}
}

// NewSeeded returns a store with a small default taxonomy, enough to run
// the server without a spreadsheet.
func NewSeeded() *Store {
	return New(core.Taxonomy{
		{Name: "Jedzenie", Items: []string{"Zakupy spożywcze", "Restauracje"}},
		{Name: "Dom", Items: []string{"Czynsz", "Media"}},
		{Name: "Transport", Items: []string{"Paliwo", "Bilety"}},
	})
}

func (s *Store) FetchTaxonomy(_ context.Context) (core.Taxonomy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchTaxonomyCalls++
	if s.TaxonomyErr != nil {
		return nil, s.TaxonomyErr
	}
	return append(core.Taxonomy(nil), s.taxonomy...), nil
}

func (s *Store) FetchDayAmounts(_ context.Context, month string, day int) (core.DayAmounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchDayAmountsCalls++
	if s.DayAmountsErr != nil {
		return nil, s.DayAmountsErr
	}
	return s.amounts[month][day].Clone(), nil
}

func (s *Store) WriteExpense(_ context.Context, req core.WriteRequest) (core.WriteResult, error) {
	if err := req.Validate(); err != nil {
		return core.WriteResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeCalls++
	if s.WriteFailures > 0 {
		s.WriteFailures--
		if s.WriteErr != nil {
			return core.WriteResult{}, s.WriteErr
		}
		return core.WriteResult{}, fmt.Errorf("injected write failure")
	}

	if s.amounts[req.Month] == nil {
		s.amounts[req.Month] = make(map[int]core.DayAmounts)
	}
	if s.amounts[req.Month][req.Day] == nil {
		s.amounts[req.Month][req.Day] = core.DayAmounts{}
	}
	snap := s.amounts[req.Month][req.Day]

	if req.Mode == core.ModeFormula {
		snap[req.Category] = core.DayAmountEntry{Formula: req.Formula}
		return core.WriteResult{Mode: core.ModeFormula, Formula: req.Formula}, nil
	}

	entry := snap[req.Category]
	entry.Amount = core.Round2(entry.Amount + req.Amount)
	entry.Formula = ""
	snap[req.Category] = entry
	return core.WriteResult{Mode: core.ModeValue, Amount: req.Amount}, nil
}

func (s *Store) InvalidateMonth(month string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidatedMonths = append(s.invalidatedMonths, month)
}

// SetDayAmounts seeds the ledger state for one (month, day) pair.
func (s *Store) SetDayAmounts(month string, day int, snap core.DayAmounts) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.amounts[month] == nil {
		s.amounts[month] = make(map[int]core.DayAmounts)
	}
	s.amounts[month][day] = snap.Clone()
}

// Counters for tests.
func (s *Store) TaxonomyCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchTaxonomyCalls
}

func (s *Store) DayAmountsCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchDayAmountsCalls
}

func (s *Store) WriteCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeCalls
}

func (s *Store) InvalidatedMonths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.invalidatedMonths...)
}
