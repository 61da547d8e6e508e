package tablebuilder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstats/tablebuilder/pkg/data"
	"github.com/openstats/tablebuilder/pkg/observation"
	"github.com/openstats/tablebuilder/pkg/timeperiod"
)

type fakeFinder struct {
	observations []data.Observation
	periods      []timeperiod.Period
	err          error

	calls       int
	periodCalls int
}

func (f *fakeFinder) FindObservations(_ context.Context, _ observation.Query) ([]data.Observation, error) {
	f.calls++

	return f.observations, f.err
}

func (f *fakeFinder) GetTimePeriodsMeta(_ context.Context, _ observation.Query) ([]timeperiod.Period, error) {
	f.periodCalls++

	return f.periods, f.err
}

func TestQuery_SubjectNotInLatestRelease(t *testing.T) {
	subjectID := uuid.New()
	store := &fakeStore{inLatestRelease: false}
	finder := &fakeFinder{}

	svc := NewService(testLogger(), store, finder)

	result, err := svc.Query(context.Background(), observation.Query{SubjectID: subjectID}, ShapeTableBuilder)
	require.NoError(t, err)

	assert.Empty(t, result.Results)
	assert.Nil(t, result.Meta)
	assert.Equal(t, uuid.Nil, result.PublicationID)

	// The guard short-circuits before any selection work.
	assert.Zero(t, finder.calls)
}

func TestQuery_NoMatchingObservations(t *testing.T) {
	subjectID := uuid.New()
	store := &fakeStore{inLatestRelease: true}
	finder := &fakeFinder{}

	svc := NewService(testLogger(), store, finder)

	result, err := svc.Query(context.Background(), observation.Query{SubjectID: subjectID}, ShapeTableBuilder)
	require.NoError(t, err)

	assert.NotNil(t, result.Results)
	assert.Empty(t, result.Results)
	assert.Equal(t, 1, finder.calls)
}

func TestQuery_MixedSubjectsRejected(t *testing.T) {
	subjectID := uuid.New()
	observations := metaObservations(subjectID)
	observations[1].SubjectID = uuid.New()

	store := &fakeStore{inLatestRelease: true}
	finder := &fakeFinder{observations: observations}

	svc := NewService(testLogger(), store, finder)

	result, err := svc.Query(context.Background(), observation.Query{SubjectID: subjectID}, ShapeTableBuilder)
	assert.ErrorIs(t, err, ErrMixedSubjects)
	assert.Nil(t, result)
}

func TestQuery_FullResponse(t *testing.T) {
	subjectID := uuid.New()
	released := time.Date(2018, 3, 22, 9, 30, 0, 0, time.UTC)
	release := &data.SubjectRelease{
		SubjectID:       subjectID,
		ReleaseID:       uuid.New(),
		ReleaseSlug:     "2016-17",
		ReleaseDate:     released,
		PublicationID:   uuid.New(),
		PublicationSlug: "pupil-absence",
	}

	store := &fakeStore{
		inLatestRelease: true,
		release:         release,
		filters:         []data.Filter{characteristicFilter()},
		footnotes:       []data.Footnote{{ID: 7, Content: "State-funded schools only."}},
	}
	finder := &fakeFinder{observations: metaObservations(subjectID)}

	svc := NewService(testLogger(), store, finder)

	result, err := svc.Query(context.Background(), observation.Query{SubjectID: subjectID}, ShapeTableBuilder)
	require.NoError(t, err)

	assert.Equal(t, release.PublicationID, result.PublicationID)
	assert.Equal(t, release.ReleaseID, result.ReleaseID)
	assert.Equal(t, subjectID, result.SubjectID)
	assert.Equal(t, released, result.ReleaseDate)
	assert.Equal(t, data.LevelLocalAuthority, result.GeographicLevel)

	require.Len(t, result.Results, 3)
	assert.Equal(t, []string{"100", "111"}, result.Results[0].Filters)
	assert.Equal(t, map[int64]string{23: "5"}, result.Results[0].Measures)
	assert.Equal(t, "2017_AY", result.Results[0].TimePeriod)

	require.NotNil(t, result.Meta)
	assert.Contains(t, result.Meta.Filters, "Characteristic")
	assert.NotEmpty(t, result.Meta.Locations)
	assert.NotEmpty(t, result.Meta.Footnotes)
	assert.Len(t, result.Meta.TimePeriods, 2)
}

func TestQuery_CombinedShapeOmitsLocationsAndFootnotes(t *testing.T) {
	subjectID := uuid.New()
	store := &fakeStore{
		inLatestRelease: true,
		release:         &data.SubjectRelease{SubjectID: subjectID},
		filters:         []data.Filter{characteristicFilter()},
		footnotes:       []data.Footnote{{ID: 7, Content: "State-funded schools only."}},
	}
	finder := &fakeFinder{observations: metaObservations(subjectID)}

	svc := NewService(testLogger(), store, finder)

	result, err := svc.Query(context.Background(), observation.Query{SubjectID: subjectID}, ShapeCombined)
	require.NoError(t, err)

	require.NotNil(t, result.Meta)
	assert.Nil(t, result.Meta.Locations)
	assert.Nil(t, result.Meta.Footnotes)

	// Everything else survives the lighter shape.
	assert.NotEmpty(t, result.Meta.Filters)
	assert.NotEmpty(t, result.Meta.TimePeriods)
	assert.Len(t, result.Results, 3)
}

func TestQuery_SelectionErrorPropagates(t *testing.T) {
	subjectID := uuid.New()
	boom := errors.New("connection refused")
	store := &fakeStore{inLatestRelease: true}
	finder := &fakeFinder{err: boom}

	svc := NewService(testLogger(), store, finder)

	result, err := svc.Query(context.Background(), observation.Query{SubjectID: subjectID}, ShapeTableBuilder)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, result)
}

func TestSubjectMeta_ServiceDelegates(t *testing.T) {
	subjectID := uuid.New()
	store := &fakeStore{
		inLatestRelease: true,
		filters:         []data.Filter{characteristicFilter()},
	}
	finder := &fakeFinder{
		observations: metaObservations(subjectID),
		periods: []timeperiod.Period{
			{Year: 2015, Identifier: timeperiod.AcademicYear},
			{Year: 2016, Identifier: timeperiod.AcademicYear},
			{Year: 2017, Identifier: timeperiod.AcademicYear},
		},
	}

	svc := NewService(testLogger(), store, finder)

	meta, err := svc.SubjectMeta(context.Background(), observation.Query{SubjectID: subjectID})
	require.NoError(t, err)

	assert.Equal(t, 1, finder.calls)
	assert.Equal(t, 1, finder.periodCalls)
	assert.Contains(t, meta.Filters, "Characteristic")

	// The standalone meta endpoint reports the subject's full period
	// coverage, including 2015 which the matched observations do not span.
	assert.Equal(t, []TimePeriodMeta{
		{Year: 2015, Code: "AY", Label: "2015/16 Academic year"},
		{Year: 2016, Code: "AY", Label: "2016/17 Academic year"},
		{Year: 2017, Code: "AY", Label: "2017/18 Academic year"},
	}, meta.TimePeriods)
}
