package usecase

import (
	"context"
	"fmt"

	"Indicadores/internal/domain/models"
	drepo "Indicadores/internal/domain/repository"

	"golang.org/x/sync/errgroup"
)

// Comparator fetches several histories concurrently and aligns them by day.
type Comparator struct {
	source drepo.IndicatorSource
}

func NewComparator(source drepo.IndicatorSource) *Comparator {
	return &Comparator{source: source}
}

// Compare fetches the year-scoped history of each code (full history when year is 0)
// and aligns them. The first failed fetch cancels the others and fails the comparison.
func (c *Comparator) Compare(ctx context.Context, codes []models.IndicatorCode, year int) ([]models.AlignedRow, error) {
	if err := validateComparison(codes, year); err != nil {
		return nil, err
	}

	series := make([]models.IndicatorDetail, len(codes))
	g, gctx := errgroup.WithContext(ctx)
	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			d, err := c.source.FetchHistory(gctx, code, year)
			if err != nil {
				return fmt.Errorf("compare %s: %w", code, err)
			}
			series[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Align(series), nil
}

func validateComparison(codes []models.IndicatorCode, year int) error {
	if len(codes) < 2 || len(codes) > models.MaxSelection {
		return fmt.Errorf("%w: got %d", models.ErrComparisonSize, len(codes))
	}
	seen := make(map[models.IndicatorCode]struct{}, len(codes))
	for _, code := range codes {
		if !code.Valid() {
			return fmt.Errorf("%w: %q", models.ErrUnknownIndicator, code)
		}
		if _, dup := seen[code]; dup {
			return fmt.Errorf("%w: duplicate %s", models.ErrComparisonSize, code)
		}
		seen[code] = struct{}{}
	}
	if year != 0 && !models.ValidYear(year) {
		return fmt.Errorf("%w: %d", models.ErrInvalidYear, year)
	}
	return nil
}
