package ingestion

import "github.com/guttosm/fundimport/internal/domain/models"

// Deduplicator remembers natural keys of stored holdings and of rows already
// accepted in the current batch.
type Deduplicator struct {
	existing map[string]struct{}
	seen     map[string]struct{}
}

// NewDeduplicator seeds the key set from stored holdings.
func NewDeduplicator(stored []models.Holding) *Deduplicator {
	d := &Deduplicator{
		existing: make(map[string]struct{}, len(stored)),
		seen:     make(map[string]struct{}),
	}
	for _, h := range stored {
		d.existing[h.NaturalKey()] = struct{}{}
	}
	return d
}

// Admit reports whether h is new. A new key is remembered, so a second call
// with an equal record returns false.
func (d *Deduplicator) Admit(h models.Holding) bool {
	k := h.NaturalKey()
	if _, ok := d.existing[k]; ok {
		return false
	}
	if _, ok := d.seen[k]; ok {
		return false
	}
	d.seen[k] = struct{}{}
	return true
}

// Stored returns the number of distinct keys seeded from the store.
func (d *Deduplicator) Stored() int { return len(d.existing) }
