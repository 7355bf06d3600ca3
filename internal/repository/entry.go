// Package repository persists catalog entries and seller offers as JSON
// records in the shared store, and maintains the master ISBN set used for
// rebuilds and statistics.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/has99an/gtl-marketplace-search/internal/domain"
	"github.com/has99an/gtl-marketplace-search/internal/store"
)

// EntryRepository stores denormalized catalog entries.
type EntryRepository struct {
	store store.Adapter
}

// NewEntryRepository creates a catalog entry repository.
func NewEntryRepository(s store.Adapter) *EntryRepository {
	return &EntryRepository{store: s}
}

// Get returns the entry for the given ISBN, or ErrNotFound.
func (r *EntryRepository) Get(ctx context.Context, isbn string) (*domain.CatalogEntry, error) {
	raw, err := r.store.Get(ctx, EntryKey(isbn))
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}

	var entry domain.CatalogEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("unmarshal entry %s: %w", isbn, err)
	}
	return &entry, nil
}

// GetMany fetches entries for the given ISBNs in a single store round-trip.
// ISBNs with no stored entry are skipped; order follows the found records.
func (r *EntryRepository) GetMany(ctx context.Context, isbns []string) ([]*domain.CatalogEntry, error) {
	if len(isbns) == 0 {
		return nil, nil
	}

	keys := make([]string, len(isbns))
	for i, isbn := range isbns {
		keys[i] = EntryKey(isbn)
	}

	raws, err := r.store.GetMany(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("get entries: %w", err)
	}

	entries := make([]*domain.CatalogEntry, 0, len(raws))
	for _, raw := range raws {
		var entry domain.CatalogEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

// Upsert writes the entry record and registers its ISBN in the master set.
func (r *EntryRepository) Upsert(ctx context.Context, entry *domain.CatalogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry %s: %w", entry.ISBN, err)
	}

	if err := r.store.Set(ctx, EntryKey(entry.ISBN), string(data), 0); err != nil {
		return fmt.Errorf("set entry: %w", err)
	}
	if err := r.store.SetAdd(ctx, isbnSetKey, entry.ISBN); err != nil {
		return fmt.Errorf("register isbn: %w", err)
	}
	return nil
}

// Delete removes the entry record and its ISBN from the master set.
func (r *EntryRepository) Delete(ctx context.Context, isbn string) error {
	if err := r.store.Delete(ctx, EntryKey(isbn)); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if err := r.store.SetRemove(ctx, isbnSetKey, isbn); err != nil {
		return fmt.Errorf("deregister isbn: %w", err)
	}
	return nil
}

// ISBNs returns every ISBN with a stored entry.
func (r *EntryRepository) ISBNs(ctx context.Context) ([]string, error) {
	isbns, err := r.store.SetMembers(ctx, isbnSetKey)
	if err != nil {
		return nil, fmt.Errorf("list isbns: %w", err)
	}
	return isbns, nil
}

// Count returns the number of stored entries.
func (r *EntryRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.store.SetCard(ctx, isbnSetKey)
	if err != nil {
		return 0, fmt.Errorf("count isbns: %w", err)
	}
	return n, nil
}
