package service

import (
	"context"
	"fmt"

	"github.com/pkordes/tripplanner/internal/domain"
)

// Export returns one ExportRow per itinerary card across every trip the
// caller may edit, newest trip first. Trips with no itinerary contribute one
// row with empty card fields.
func (s *TripService) Export(ctx context.Context) ([]domain.ExportRow, error) {
	trips, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Export: %w", err)
	}

	rows := make([]domain.ExportRow, 0, len(trips))
	for _, t := range trips {
		if authorize(ctx, t) != nil {
			continue
		}
		rows = append(rows, domain.ExportRows(t)...)
	}
	return rows, nil
}
