package usecase

import (
	"context"
	"fmt"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
	"github.com/supplyops/wc-optimizer/internal/core/ports"
)

// AvailabilityResolver decides whether the datasets an analysis needs exist
// and are non-empty. A table that exists but holds zero rows counts as
// missing: an empty table can never support a real result.
type AvailabilityResolver struct {
	store ports.DatasetStore
}

func NewAvailabilityResolver(store ports.DatasetStore) *AvailabilityResolver {
	return &AvailabilityResolver{store: store}
}

// Missing returns the subset of cats that are absent or empty.
func (r *AvailabilityResolver) Missing(ctx context.Context, cats ...domain.Category) ([]domain.Category, error) {
	var missing []domain.Category
	for _, cat := range cats {
		ok, err := r.Available(ctx, cat)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, cat)
		}
	}
	return missing, nil
}

// Available reports whether one category's table exists and is non-empty.
func (r *AvailabilityResolver) Available(ctx context.Context, cat domain.Category) (bool, error) {
	has, err := r.store.HasTable(ctx, cat)
	if err != nil {
		return false, domain.WrapError(domain.ErrStoreUnavailable, "check table", err)
	}
	if !has {
		return false, nil
	}
	n, err := r.store.RowCount(ctx, cat)
	if err != nil {
		return false, domain.WrapError(domain.ErrStoreUnavailable, "count rows", err)
	}
	return n > 0, nil
}

// Gate applies an analysis spec's requirements. It returns a DataGap when
// they are unmet and nil when the analysis may run.
func (r *AvailabilityResolver) Gate(ctx context.Context, spec domain.AnalysisSpec) (*domain.DataGap, error) {
	if len(spec.Requires) > 0 {
		missing, err := r.Missing(ctx, spec.Requires...)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			return domain.NewDataGap(missing...), nil
		}
	}
	if len(spec.RequiresAny) > 0 {
		for _, cat := range spec.RequiresAny {
			ok, err := r.Available(ctx, cat)
			if err != nil {
				return nil, err
			}
			if ok {
				return nil, nil
			}
		}
		gap := domain.NewDataGap(spec.RequiresAny...)
		gap.Message = fmt.Sprintf("Upload one of %v to enable this analysis.", spec.RequiresAny)
		return gap, nil
	}
	return nil, nil
}
