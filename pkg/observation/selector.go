package observation

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/openstats/tablebuilder/pkg/data"
	"github.com/openstats/tablebuilder/pkg/observability"
	"github.com/openstats/tablebuilder/pkg/timeperiod"
)

const (
	// hydrationBatchSize bounds the id set passed to a single hydration query.
	hydrationBatchSize = 10000
	// hydrationConcurrency bounds the number of hydration queries in flight.
	// Batches are independent reads, so ordering of the concatenated result
	// is not guaranteed.
	hydrationConcurrency = 4
)

// Selector turns queries into hydrated observation rows: it expands the time
// range, resolves matching ids with one bulk query, and hydrates rows in
// bounded batches.
type Selector struct {
	log   logrus.FieldLogger
	store Store
}

// NewSelector creates an observation selector over the given store.
func NewSelector(log logrus.FieldLogger, store Store) *Selector {
	return &Selector{
		log:   log.WithField("component", "observation.selector"),
		store: store,
	}
}

// expandPeriods expands the query's time range, routing term-count pseudo
// identifiers through the number-of-terms expansion.
func expandPeriods(q TimePeriodQuery) ([]timeperiod.Period, error) {
	if q.StartCode.IsNumberOfTerms() || q.EndCode.IsNumberOfTerms() {
		return timeperiod.RangeForNumberOfTerms(q.StartYear, q.EndYear)
	}

	return timeperiod.Range(q.StartYear, q.StartCode, q.EndYear, q.EndCode)
}

// FindObservations returns the hydrated observations matching the query.
// A subject with no matching observations yields an empty result, not an
// error.
func (s *Selector) FindObservations(ctx context.Context, q Query) ([]data.Observation, error) {
	periods, err := expandPeriods(q.TimePeriod)
	if err != nil {
		return nil, fmt.Errorf("failed to expand time period range: %w", err)
	}

	ids, err := s.store.SelectObservationIDs(ctx, SelectionCriteria{
		SubjectID:       q.SubjectID,
		GeographicLevel: q.GeographicLevel,
		Periods:         periods,
		Locations:       q.Locations,
		FilterItemIDs:   q.FilterItemIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to select observation ids: %w", err)
	}

	observability.ObservationsSelected.Observe(float64(len(ids)))

	if len(ids) == 0 {
		s.log.WithField("subject", q.SubjectID).Debug("No observations matched query")
		return nil, nil
	}

	batches := batchIDs(ids, hydrationBatchSize)
	results := make([][]data.Observation, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrationConcurrency)

	for i, batch := range batches {
		g.Go(func() error {
			rows, err := s.store.ObservationBatch(gctx, batch)
			if err != nil {
				return fmt.Errorf("failed to hydrate batch %d: %w", i, err)
			}

			results[i] = rows

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	observations := make([]data.Observation, 0, len(ids))
	for _, batch := range results {
		observations = append(observations, batch...)
	}

	// Shared fix-up pass over the hydrated rows: absent location attributes
	// come back from the store as empty strings and must surface as null.
	for i := range observations {
		observations[i].Location.Normalize()
	}

	s.log.WithFields(logrus.Fields{
		"subject": q.SubjectID,
		"rows":    len(observations),
		"batches": len(batches),
	}).Debug("Hydrated observations")

	return observations, nil
}

// GetTimePeriodsMeta returns the distinct time periods present among the
// queried subject's observations, ordered by year then identifier rank.
func (s *Selector) GetTimePeriodsMeta(ctx context.Context, q Query) ([]timeperiod.Period, error) {
	periods, err := s.store.TimePeriodsForSubject(ctx, q.SubjectID)
	if err != nil {
		return nil, err
	}

	SortPeriods(periods)

	return periods, nil
}

// SortPeriods orders periods by year, then by identifier rank within the year.
func SortPeriods(periods []timeperiod.Period) {
	sort.SliceStable(periods, func(i, j int) bool {
		if periods[i].Year != periods[j].Year {
			return periods[i].Year < periods[j].Year
		}

		return periods[i].Identifier.Rank() < periods[j].Identifier.Rank()
	})
}

// batchIDs partitions ids into fixed-size batches, preserving order.
func batchIDs(ids []int64, size int) [][]int64 {
	batches := make([][]int64, 0, (len(ids)+size-1)/size)

	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}

		batches = append(batches, ids[start:end])
	}

	return batches
}
