package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"techtrove/internal/model"
	"techtrove/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNoFiles is returned when Seed is called without any input files.
var ErrNoFiles = errors.New("no catalog files given")

// SeedOptions controls a seeding run.
type SeedOptions struct {
	// Files are loaded concurrently and inserted in the order given.
	Files []string

	// Reset removes every existing product before inserting.
	Reset bool
}

// SeedResult summarises a seeding run.
type SeedResult struct {
	Removed  int64
	Inserted int
}

// Seeder fills the product catalog from seed files.
type Seeder struct {
	loader Loader
	repo   repository.ProductRepository
	logger zerolog.Logger
}

// NewSeeder creates a seeder that reads through loader and writes to repo.
func NewSeeder(loader Loader, repo repository.ProductRepository, logger zerolog.Logger) *Seeder {
	return &Seeder{
		loader: loader,
		repo:   repo,
		logger: logger.With().Str("component", "catalog-seeder").Logger(),
	}
}

// Seed loads opts.Files and writes their products in a single transaction.
// Nothing is written if any file fails to load.
func (s *Seeder) Seed(ctx context.Context, opts SeedOptions) (_ *SeedResult, err error) {
	if len(opts.Files) == 0 {
		return nil, ErrNoFiles
	}

	products, err := s.loadAll(ctx, opts.Files)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}
	committed := false
	defer func() {
		if err != nil && !committed {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	result := &SeedResult{}
	if opts.Reset {
		result.Removed, err = s.repo.DeleteAll(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("failed to clear catalog: %w", err)
		}
	}

	if err = s.repo.BulkInsert(ctx, tx, products); err != nil {
		return nil, fmt.Errorf("failed to insert products: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit catalog: %w", err)
	}
	committed = true
	result.Inserted = len(products)

	ids := make([]uuid.UUID, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	s.repo.Invalidate(ctx, ids...)

	s.logger.Info().
		Int("files", len(opts.Files)).
		Int64("removed", result.Removed).
		Int("inserted", result.Inserted).
		Msg("catalog seeded")

	return result, nil
}

// loadAll loads every file concurrently and concatenates the results in input order.
func (s *Seeder) loadAll(ctx context.Context, files []string) ([]model.Product, error) {
	type loadResult struct {
		products []model.Product
		err      error
	}

	results := make([]loadResult, len(files))
	var wg sync.WaitGroup
	for i, path := range files {
		i, path := i, path
		wg.Add(1)
		go func() {
			defer wg.Done()
			products, err := s.loader.Load(ctx, path)
			results[i] = loadResult{products: products, err: err}
		}()
	}
	wg.Wait()

	var all []model.Product
	for i, r := range results {
		if r.err != nil {
			s.logger.Error().Err(r.err).Str("file", files[i]).Msg("failed to load catalog file")
			return nil, fmt.Errorf("failed to load catalog file %s: %w", files[i], r.err)
		}
		all = append(all, r.products...)
	}

	return all, nil
}
