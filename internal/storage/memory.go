package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/guttosm/fundimport/internal/domain/models"
)

const (
	memDuplicateKey = `duplicate key value violates unique constraint "holdings_natural_key"`
	memDuplicateID  = `duplicate key value violates unique constraint "holdings_pkey"`
)

type memoryRepository struct {
	mu       sync.RWMutex
	holdings []models.Holding
	ids      map[string]struct{}
	keys     map[string]struct{}
	imports  map[string]models.ImportLogEntry
}

// NewMemoryRepository returns a HoldingsRepository kept in process memory,
// used for dry runs and tests. It enforces the same uniqueness rules as the
// holdings table.
func NewMemoryRepository(seed ...models.Holding) HoldingsRepository {
	r := &memoryRepository{
		ids:     map[string]struct{}{},
		keys:    map[string]struct{}{},
		imports: map[string]models.ImportLogEntry{},
	}
	for _, h := range seed {
		r.insert(h)
	}
	return r
}

func (r *memoryRepository) ListHoldings(ctx context.Context) ([]models.Holding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]models.Holding(nil), r.holdings...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PurchaseDate.Equal(out[j].PurchaseDate) {
			return out[i].PurchaseDate.Before(out[j].PurchaseDate)
		}
		if out[i].ClientID != out[j].ClientID {
			return out[i].ClientID < out[j].ClientID
		}
		return out[i].FundCode < out[j].FundCode
	})
	return out, nil
}

func (r *memoryRepository) CommitBatch(ctx context.Context, holdings []models.Holding) (models.CommitResult, error) {
	if err := ctx.Err(); err != nil {
		return models.CommitResult{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var res models.CommitResult
	for i, h := range holdings {
		if _, ok := r.ids[h.ID]; ok {
			res.Failed++
			res.Errors = append(res.Errors, models.CommitFailure{Index: i, Message: memDuplicateID})
			continue
		}
		if _, ok := r.keys[h.NaturalKey()]; ok {
			res.Failed++
			res.Errors = append(res.Errors, models.CommitFailure{Index: i, Message: memDuplicateKey})
			continue
		}
		r.insert(h)
		res.Success++
	}
	return res, nil
}

func (r *memoryRepository) HasImport(ctx context.Context, checksum string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.imports[checksum]
	return ok, nil
}

func (r *memoryRepository) RecordImport(ctx context.Context, e models.ImportLogEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("record import %s: %w", e.FileName, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imports[e.Checksum] = e
	return nil
}

func (r *memoryRepository) insert(h models.Holding) {
	r.holdings = append(r.holdings, h)
	r.ids[h.ID] = struct{}{}
	r.keys[h.NaturalKey()] = struct{}{}
}
