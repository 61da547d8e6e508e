package observation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/openstats/tablebuilder/pkg/data"
	"github.com/openstats/tablebuilder/pkg/timeperiod"
)

// Static store errors
var (
	ErrSubjectNotFound = errors.New("subject not found")
)

// Store is the read contract this subsystem has with the fact store. The
// underlying tables are written only by the data import pipeline; every
// method here is read-only and safe for concurrent callers.
type Store interface {
	// SelectObservationIDs resolves the observation primary keys matching the
	// criteria via a single bulk set-membership query.
	SelectObservationIDs(ctx context.Context, criteria SelectionCriteria) ([]int64, error)
	// ObservationBatch hydrates full observation rows, with their location and
	// filter item associations, for one id batch.
	ObservationBatch(ctx context.Context, ids []int64) ([]data.Observation, error)
	// TimePeriodsForSubject returns the distinct (year, identifier) pairs
	// present among a subject's observations.
	TimePeriodsForSubject(ctx context.Context, subjectID uuid.UUID) ([]timeperiod.Period, error)
	// FiltersForSubject loads the subject's full filter hierarchy.
	FiltersForSubject(ctx context.Context, subjectID uuid.UUID) ([]data.Filter, error)
	// IndicatorGroupsForSubject loads the subject's indicator definitions.
	IndicatorGroupsForSubject(ctx context.Context, subjectID uuid.UUID) ([]data.IndicatorGroup, error)
	// FootnotesForSubject returns the footnotes scoped to the subject and the
	// given filter item / indicator subsets.
	FootnotesForSubject(ctx context.Context, subjectID uuid.UUID, filterItemIDs, indicatorIDs []int64) ([]data.Footnote, error)
	// BoundariesForCodes returns geoJSON boundaries keyed by location code.
	BoundariesForCodes(ctx context.Context, codes []string) (map[string]json.RawMessage, error)
	// SubjectRelease resolves the release and publication scope of a subject.
	SubjectRelease(ctx context.Context, subjectID uuid.UUID) (*data.SubjectRelease, error)
	// SubjectInLatestRelease reports whether the subject belongs to the most
	// recently published release of its publication.
	SubjectInLatestRelease(ctx context.Context, subjectID uuid.UUID) (bool, error)
}

// Querier is the subset of pgxpool.Pool the store depends on.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type store struct {
	log logrus.FieldLogger
	db  Querier
}

// NewStore creates a fact store backed by postgres.
func NewStore(log logrus.FieldLogger, db Querier) Store {
	return &store{
		log: log.WithField("component", "observation.store"),
		db:  db,
	}
}

func (s *store) SelectObservationIDs(ctx context.Context, criteria SelectionCriteria) ([]int64, error) {
	query, args, err := buildSelectionQuery(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to build selection query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("selection query failed: %w", err)
	}
	defer rows.Close()

	var ids []int64

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan observation id: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (s *store) ObservationBatch(ctx context.Context, ids []int64) ([]data.Observation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT o.id, o.subject_id, o.geographic_level, o.year, o.time_identifier,
		       o.location, o.measures,
		       COALESCE(array_agg(ofi.filter_item_id ORDER BY ofi.filter_item_id)
		                FILTER (WHERE ofi.filter_item_id IS NOT NULL), '{}')
		FROM observations o
		LEFT JOIN observation_filter_items ofi ON ofi.observation_id = o.id
		WHERE o.id = ANY($1)
		GROUP BY o.id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("hydration query failed: %w", err)
	}
	defer rows.Close()

	observations := make([]data.Observation, 0, len(ids))

	for rows.Next() {
		var (
			o           data.Observation
			rawMeasures map[string]string
		)

		if err := rows.Scan(
			&o.ID, &o.SubjectID, &o.GeographicLevel, &o.Year, &o.TimeIdentifier,
			&o.Location, &rawMeasures, &o.FilterItemIDs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}

		o.Measures = make(map[int64]string, len(rawMeasures))

		for key, value := range rawMeasures {
			indicatorID, convErr := strconv.ParseInt(key, 10, 64)
			if convErr != nil {
				return nil, fmt.Errorf("observation %d has a non-numeric measure key %q: %w", o.ID, key, convErr)
			}

			o.Measures[indicatorID] = value
		}

		observations = append(observations, o)
	}

	return observations, rows.Err()
}

func (s *store) TimePeriodsForSubject(ctx context.Context, subjectID uuid.UUID) ([]timeperiod.Period, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT year, time_identifier
		FROM observations
		WHERE subject_id = $1
		ORDER BY year
	`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("time periods query failed: %w", err)
	}
	defer rows.Close()

	var periods []timeperiod.Period

	for rows.Next() {
		var p timeperiod.Period
		if err := rows.Scan(&p.Year, &p.Identifier); err != nil {
			return nil, fmt.Errorf("failed to scan time period: %w", err)
		}

		periods = append(periods, p)
	}

	return periods, rows.Err()
}

func (s *store) FiltersForSubject(ctx context.Context, subjectID uuid.UUID) ([]data.Filter, error) {
	rows, err := s.db.Query(ctx, `
		SELECT f.id, f.label, f.hint, fg.id, fg.label, fi.id, fi.label
		FROM filters f
		JOIN filter_groups fg ON fg.filter_id = f.id
		JOIN filter_items fi ON fi.filter_group_id = fg.id
		WHERE f.subject_id = $1
		ORDER BY f.id, fg.id, fi.id
	`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("filters query failed: %w", err)
	}
	defer rows.Close()

	var (
		filters    []data.Filter
		filterIdx  = make(map[int64]int)
		groupIdx   = make(map[int64]int)
		groupOwner = make(map[int64]int64)
	)

	for rows.Next() {
		var (
			filter data.Filter
			group  data.FilterGroup
			item   data.FilterItem
		)

		if err := rows.Scan(&filter.ID, &filter.Label, &filter.Hint, &group.ID, &group.Label, &item.ID, &item.Label); err != nil {
			return nil, fmt.Errorf("failed to scan filter row: %w", err)
		}

		filter.SubjectID = subjectID
		group.FilterID = filter.ID
		item.GroupID = group.ID

		fi, ok := filterIdx[filter.ID]
		if !ok {
			fi = len(filters)
			filterIdx[filter.ID] = fi
			filters = append(filters, filter)
		}

		gi, ok := groupIdx[group.ID]
		if !ok {
			gi = len(filters[fi].Groups)
			groupIdx[group.ID] = gi
			groupOwner[group.ID] = filter.ID
			filters[fi].Groups = append(filters[fi].Groups, group)
		}

		owner := filterIdx[groupOwner[group.ID]]
		filters[owner].Groups[gi].Items = append(filters[owner].Groups[gi].Items, item)
	}

	return filters, rows.Err()
}

func (s *store) IndicatorGroupsForSubject(ctx context.Context, subjectID uuid.UUID) ([]data.IndicatorGroup, error) {
	rows, err := s.db.Query(ctx, `
		SELECT ig.id, ig.label, i.id, i.label, i.unit
		FROM indicator_groups ig
		JOIN indicators i ON i.indicator_group_id = ig.id
		WHERE ig.subject_id = $1
		ORDER BY ig.id, i.id
	`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("indicators query failed: %w", err)
	}
	defer rows.Close()

	var (
		groups   []data.IndicatorGroup
		groupIdx = make(map[int64]int)
	)

	for rows.Next() {
		var (
			group     data.IndicatorGroup
			indicator data.Indicator
		)

		if err := rows.Scan(&group.ID, &group.Label, &indicator.ID, &indicator.Label, &indicator.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan indicator row: %w", err)
		}

		group.SubjectID = subjectID
		indicator.GroupID = group.ID

		gi, ok := groupIdx[group.ID]
		if !ok {
			gi = len(groups)
			groupIdx[group.ID] = gi
			groups = append(groups, group)
		}

		groups[gi].Indicators = append(groups[gi].Indicators, indicator)
	}

	return groups, rows.Err()
}

func (s *store) FootnotesForSubject(ctx context.Context, subjectID uuid.UUID, filterItemIDs, indicatorIDs []int64) ([]data.Footnote, error) {
	// Nil subsets must reach postgres as empty arrays, not NULL: a NULL
	// operand makes the applicability predicate NULL and silently drops
	// every linked footnote.
	if filterItemIDs == nil {
		filterItemIDs = []int64{}
	}

	if indicatorIDs == nil {
		indicatorIDs = []int64{}
	}

	// A footnote applies when it is subject-wide (no specific links) or when
	// its linked filter items / indicators overlap the queried sets. An empty
	// indicator subset means every indicator, matching the result shaping.
	rows, err := s.db.Query(ctx, `
		SELECT fn.id, fn.content
		FROM footnotes fn
		WHERE fn.subject_id = $1
		  AND (COALESCE(cardinality(fn.filter_item_ids), 0) = 0 OR fn.filter_item_ids && $2)
		  AND (cardinality($3::bigint[]) = 0 OR COALESCE(cardinality(fn.indicator_ids), 0) = 0 OR fn.indicator_ids && $3)
		ORDER BY fn.id
	`, subjectID, filterItemIDs, indicatorIDs)
	if err != nil {
		return nil, fmt.Errorf("footnotes query failed: %w", err)
	}
	defer rows.Close()

	var footnotes []data.Footnote

	for rows.Next() {
		var fn data.Footnote
		if err := rows.Scan(&fn.ID, &fn.Content); err != nil {
			return nil, fmt.Errorf("failed to scan footnote: %w", err)
		}

		footnotes = append(footnotes, fn)
	}

	return footnotes, rows.Err()
}

func (s *store) BoundariesForCodes(ctx context.Context, codes []string) (map[string]json.RawMessage, error) {
	rows, err := s.db.Query(ctx, `
		SELECT code, boundary
		FROM geo_boundaries
		WHERE code = ANY($1)
	`, codes)
	if err != nil {
		return nil, fmt.Errorf("boundaries query failed: %w", err)
	}
	defer rows.Close()

	boundaries := make(map[string]json.RawMessage, len(codes))

	for rows.Next() {
		var (
			code     string
			boundary json.RawMessage
		)

		if err := rows.Scan(&code, &boundary); err != nil {
			return nil, fmt.Errorf("failed to scan boundary: %w", err)
		}

		boundaries[code] = boundary
	}

	return boundaries, rows.Err()
}

func (s *store) SubjectRelease(ctx context.Context, subjectID uuid.UUID) (*data.SubjectRelease, error) {
	var (
		sr        data.SubjectRelease
		published *time.Time
	)

	err := s.db.QueryRow(ctx, `
		SELECT s.id, r.id, r.slug, r.published, p.id, p.slug
		FROM subjects s
		JOIN releases r ON r.id = s.release_id
		JOIN publications p ON p.id = r.publication_id
		WHERE s.id = $1
	`, subjectID).Scan(&sr.SubjectID, &sr.ReleaseID, &sr.ReleaseSlug, &published, &sr.PublicationID, &sr.PublicationSlug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSubjectNotFound, subjectID)
		}

		return nil, fmt.Errorf("subject release query failed: %w", err)
	}

	if published != nil {
		sr.ReleaseDate = *published
	}

	return &sr, nil
}

func (s *store) SubjectInLatestRelease(ctx context.Context, subjectID uuid.UUID) (bool, error) {
	var isLatest bool

	err := s.db.QueryRow(ctx, `
		SELECT r.id = latest.id
		FROM subjects s
		JOIN releases r ON r.id = s.release_id
		JOIN LATERAL (
			SELECT id
			FROM releases
			WHERE publication_id = r.publication_id AND published IS NOT NULL
			ORDER BY published DESC
			LIMIT 1
		) latest ON TRUE
		WHERE s.id = $1
	`, subjectID).Scan(&isLatest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("%w: %s", ErrSubjectNotFound, subjectID)
		}

		return false, fmt.Errorf("latest release query failed: %w", err)
	}

	return isLatest, nil
}
