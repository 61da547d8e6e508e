package tablebuilder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openstats/tablebuilder/pkg/data"
	"github.com/openstats/tablebuilder/pkg/observability"
	"github.com/openstats/tablebuilder/pkg/observation"
	"github.com/openstats/tablebuilder/pkg/timeperiod"
)

// Static service errors
var (
	// ErrMixedSubjects is returned when a selection yields observations from
	// more than one subject. Result-level metadata assumes a single
	// (publication, release, subject) scope per query, so this is checked
	// explicitly rather than trusting an arbitrary first row.
	ErrMixedSubjects = errors.New("observations span more than one subject")
)

// Finder selects and hydrates the observations matching a query, and resolves
// the time periods a subject covers.
type Finder interface {
	FindObservations(ctx context.Context, q observation.Query) ([]data.Observation, error)
	GetTimePeriodsMeta(ctx context.Context, q observation.Query) ([]timeperiod.Period, error)
}

// Service answers table builder queries: selection, row shaping and facet
// metadata assembly.
type Service interface {
	Query(ctx context.Context, q observation.Query, shape ResultShape) (*TableResult, error)
	SubjectMeta(ctx context.Context, q observation.Query) (*SubjectMeta, error)
}

type service struct {
	log      logrus.FieldLogger
	store    observation.Store
	selector Finder
	meta     *MetaBuilder
}

// NewService creates the table builder service.
func NewService(log logrus.FieldLogger, store observation.Store, selector Finder) Service {
	return &service{
		log:      log.WithField("service", "tablebuilder"),
		store:    store,
		selector: selector,
		meta:     NewMetaBuilder(log, store),
	}
}

func (s *service) Query(ctx context.Context, q observation.Query, shape ResultShape) (*TableResult, error) {
	started := time.Now()

	result, err := s.query(ctx, q, shape)

	status := "success"

	switch {
	case err != nil:
		status = "failed"
	case len(result.Results) == 0:
		status = "empty"
	}

	observability.QueriesTotal.WithLabelValues(status).Inc()
	observability.QueryDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())

	return result, err
}

func (s *service) query(ctx context.Context, q observation.Query, shape ResultShape) (*TableResult, error) {
	// Querying a subject that is not part of its publication's latest
	// published release yields an empty result rather than stale data.
	isLatest, err := s.store.SubjectInLatestRelease(ctx, q.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check latest release: %w", err)
	}

	if !isLatest {
		s.log.WithField("subject", q.SubjectID).Info("Subject is not in the latest published release")
		return emptyResult(), nil
	}

	observations, err := s.selector.FindObservations(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to find observations: %w", err)
	}

	if len(observations) == 0 {
		return emptyResult(), nil
	}

	for i := range observations {
		if observations[i].SubjectID != q.SubjectID {
			return nil, fmt.Errorf("%w: expected %s, found %s", ErrMixedSubjects, q.SubjectID, observations[i].SubjectID)
		}
	}

	release, err := s.store.SubjectRelease(ctx, q.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subject release: %w", err)
	}

	rows := make([]ResultRow, 0, len(observations))
	for i := range observations {
		rows = append(rows, BuildResult(observations[i], q.IndicatorIDs))
	}

	meta, err := s.meta.SubjectMeta(ctx, q, observations)
	if err != nil {
		return nil, fmt.Errorf("failed to build subject meta: %w", err)
	}

	if shape == ShapeCombined {
		// Legacy shape: the per-request location and footnote detail is
		// omitted, the rest of the facet metadata is kept.
		meta.Locations = nil
		meta.Footnotes = nil
	}

	return &TableResult{
		PublicationID:   release.PublicationID,
		ReleaseID:       release.ReleaseID,
		SubjectID:       release.SubjectID,
		ReleaseDate:     release.ReleaseDate,
		GeographicLevel: observations[0].GeographicLevel,
		Results:         rows,
		Meta:            meta,
	}, nil
}

// SubjectMeta exposes facet metadata for a filtered subject without shaping
// rows, for callers assembling a query incrementally.
func (s *service) SubjectMeta(ctx context.Context, q observation.Query) (*SubjectMeta, error) {
	observations, err := s.selector.FindObservations(ctx, q)
	if err != nil {
		return nil, err
	}

	meta, err := s.meta.SubjectMeta(ctx, q, observations)
	if err != nil {
		return nil, err
	}

	// The standalone meta endpoint advertises every period the subject
	// covers, not only those the current facet selection matched.
	periods, err := s.selector.GetTimePeriodsMeta(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subject time periods: %w", err)
	}

	meta.TimePeriods = periodMeta(periods)

	return meta, nil
}

func emptyResult() *TableResult {
	return &TableResult{Results: []ResultRow{}}
}
