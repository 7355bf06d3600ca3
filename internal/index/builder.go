package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/has99an/gtl-marketplace-search/internal/domain"
	"github.com/has99an/gtl-marketplace-search/internal/repository"
)

// builderBatchSize is how many entries one rebuild batch fetches.
const builderBatchSize = 200

// Builder reconstructs the text and rank indices from the stored catalog
// entries. It runs at startup when the indices are empty and on demand for a
// forced reindex.
type Builder struct {
	entries *repository.EntryRepository
	text    *TextIndex
	ranks   *RankIndex
	logger  *slog.Logger
}

// NewBuilder creates an index builder.
func NewBuilder(entries *repository.EntryRepository, text *TextIndex, ranks *RankIndex, logger *slog.Logger) *Builder {
	return &Builder{
		entries: entries,
		text:    text,
		ranks:   ranks,
		logger:  logger,
	}
}

// BuildIfEmpty rebuilds the indices unless both rank orders are already
// populated. A store with entries but an empty rank order, either one, is a
// fresh store or a partially flushed index and gets rebuilt.
func (b *Builder) BuildIfEmpty(ctx context.Context) error {
	titleCard, err := b.ranks.Card(ctx, TitleRankKey)
	if err != nil {
		return fmt.Errorf("check title rank: %w", err)
	}
	priceCard, err := b.ranks.Card(ctx, PriceRankKey)
	if err != nil {
		return fmt.Errorf("check price rank: %w", err)
	}
	if titleCard > 0 && priceCard > 0 {
		b.logger.Debug("indices already populated, skipping rebuild",
			slog.Int64("title_rank_size", titleCard),
			slog.Int64("price_rank_size", priceCard))
		return nil
	}

	count, err := b.entries.Count(ctx)
	if err != nil {
		return fmt.Errorf("count entries: %w", err)
	}
	if count == 0 {
		return nil
	}

	b.logger.Info("rank indices incomplete with stored entries, rebuilding",
		slog.Int64("entries", count))
	return b.Rebuild(ctx)
}

// Rebuild reindexes every stored entry in batches. It only adds and updates;
// stale postings for deleted entries are handled by the delete path, not
// here.
func (b *Builder) Rebuild(ctx context.Context) error {
	start := time.Now()

	isbns, err := b.entries.ISBNs(ctx)
	if err != nil {
		return fmt.Errorf("list isbns: %w", err)
	}

	indexed := 0
	for batchStart := 0; batchStart < len(isbns); batchStart += builderBatchSize {
		end := min(batchStart+builderBatchSize, len(isbns))

		entries, err := b.entries.GetMany(ctx, isbns[batchStart:end])
		if err != nil {
			return fmt.Errorf("fetch batch: %w", err)
		}

		for _, entry := range entries {
			if err := b.indexEntry(ctx, entry); err != nil {
				return err
			}
			indexed++
		}
	}

	b.logger.Info("index rebuild complete",
		slog.Int("indexed", indexed),
		slog.Duration("took", time.Since(start)))
	return nil
}

func (b *Builder) indexEntry(ctx context.Context, entry *domain.CatalogEntry) error {
	terms := EntryTerms(entry.Title, entry.Authors, entry.ISBN)
	if err := b.text.Add(ctx, entry.ISBN, terms); err != nil {
		return fmt.Errorf("index entry %s: %w", entry.ISBN, err)
	}

	if entry.Available() {
		if err := b.ranks.Upsert(ctx, entry.ISBN, entry.Title, entry.MinPriceCents); err != nil {
			return fmt.Errorf("rank entry %s: %w", entry.ISBN, err)
		}
		return nil
	}
	if err := b.ranks.Remove(ctx, entry.ISBN); err != nil {
		return fmt.Errorf("unrank entry %s: %w", entry.ISBN, err)
	}
	return nil
}
