package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "data-importer-backend/internal/common/errors"
	"data-importer-backend/internal/features/importer/models"
	"data-importer-backend/internal/features/importer/repository"
)

type stubSource struct {
	mu        sync.Mutex
	raw       models.RawData
	errs      map[string]error
	failTimes map[string]int
}

func (s *stubSource) read(name string, rows [][]string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := s.failTimes[name]; n > 0 {
		s.failTimes[name] = n - 1
		return nil, errors.New("transient read failure")
	}
	if err := s.errs[name]; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *stubSource) Students(ctx context.Context) ([][]string, error) {
	return s.read("students", s.raw.Students)
}

func (s *stubSource) Projects(ctx context.Context) ([][]string, error) {
	return s.read("projects", s.raw.Projects)
}

func (s *stubSource) Reviews(ctx context.Context) ([][]string, error) {
	return s.read("reviews", s.raw.Reviews)
}

func (s *stubSource) Mentors(ctx context.Context) ([][]string, error) {
	return s.read("mentors", s.raw.Mentors)
}

func (s *stubSource) SponsoredReviews(ctx context.Context) ([][]string, error) {
	return s.read("sponsored_reviews", s.raw.SponsoredReviews)
}

type fakeStore struct {
	mu      sync.Mutex
	calls   int
	last    *models.Dataset
	err     error
	ctxErr  error
	entered chan struct{}
	release chan struct{}
	onEnter func()
}

func (f *fakeStore) ReplaceAll(ctx context.Context, ds *models.Dataset, progress func(repository.Phase)) error {
	if f.entered != nil {
		close(f.entered)
	}
	if f.onEnter != nil {
		f.onEnter()
	}
	if f.release != nil {
		<-f.release
	}
	if progress != nil {
		progress(repository.PhaseClearing)
		progress(repository.PhaseInserting)
	}
	f.mu.Lock()
	f.calls++
	f.last = ds
	f.ctxErr = ctx.Err()
	f.mu.Unlock()
	return f.err
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeReportStore struct {
	mu    sync.Mutex
	saved map[string]*models.Report
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{saved: map[string]*models.Report{}}
}

func (f *fakeReportStore) Save(ctx context.Context, report *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[report.RunID] = report
	return nil
}

func (f *fakeReportStore) Get(ctx context.Context, runID string) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.saved[runID]
	if !ok {
		return nil, repository.ErrReportNotFound
	}
	return report, nil
}

func sourceWithData() *stubSource {
	return &stubSource{
		raw: models.RawData{
			Students: [][]string{{"alice", "", "@alice"}},
			Mentors:  [][]string{{"Mentor One", "@ment", "", "", "", ""}},
			Projects: [][]string{
				{"Ноябрь, 2021"},
				{"", "todo-app", "Go", "", "", "", "alice", "есть"},
			},
			Reviews: [][]string{
				{"Ноябрь, 2021", "todo-app", "", "", "Видео", "https://youtu.be/x1", "", "@ment"},
			},
		},
	}
}

func fastOptions() Options {
	return Options{MaxFetchRetries: 2, FetchInitialInterval: time.Millisecond}
}

func TestRunSuccess(t *testing.T) {
	store := &fakeStore{}
	reports := newFakeReportStore()
	svc := NewImportService(sourceWithData(), store, reports, fastOptions())

	report, err := svc.Run(context.Background())

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, models.RunStatusCompleted, report.Status)
	assert.Equal(t, 1, store.callCount())
	require.NotNil(t, store.last)
	assert.Len(t, store.last.Users, 2)
	assert.Len(t, store.last.Projects, 1)
	assert.Equal(t, 1, report.Statistics[models.EntityStudents].Imported)

	saved, err := svc.Report(context.Background(), report.RunID)
	require.NoError(t, err)
	assert.Equal(t, report.RunID, saved.RunID)
}

func TestDryRunLeavesStoreUntouched(t *testing.T) {
	store := &fakeStore{}
	svc := NewImportService(sourceWithData(), store, newFakeReportStore(), fastOptions())

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)

	dry, err := svc.DryRun(context.Background())
	require.NoError(t, err)
	assert.True(t, dry.DryRun)
	assert.Equal(t, models.RunStatusCompleted, dry.Status)
	assert.Equal(t, 1, store.callCount())
}

func TestRunFetchFailureReportsFailed(t *testing.T) {
	src := sourceWithData()
	src.errs = map[string]error{"students": errors.New("quota exceeded")}
	store := &fakeStore{}
	reports := newFakeReportStore()
	svc := NewImportService(src, store, reports, Options{MaxFetchRetries: 1, FetchInitialInterval: time.Millisecond})

	report, err := svc.Run(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeFetchFailed))
	require.NotNil(t, report)
	assert.Equal(t, models.RunStatusFailed, report.Status)
	assert.NotEmpty(t, report.Error)
	assert.Equal(t, 0, store.callCount())

	// Отчёт выпускается и для неуспешного запуска
	saved, getErr := svc.Report(context.Background(), report.RunID)
	require.NoError(t, getErr)
	assert.Equal(t, models.RunStatusFailed, saved.Status)
}

func TestRunStoreFailureKeepsStatistics(t *testing.T) {
	store := &fakeStore{err: apperrors.New(apperrors.ErrCodeTransactionFailed, "full replace rolled back")}
	svc := NewImportService(sourceWithData(), store, newFakeReportStore(), fastOptions())

	report, err := svc.Run(context.Background())

	require.Error(t, err)
	require.NotNil(t, report)
	assert.Equal(t, models.RunStatusFailed, report.Status)
	assert.Equal(t, 1, report.Statistics[models.EntityStudents].Fetched)
}

func TestConcurrentRunRejected(t *testing.T) {
	store := &fakeStore{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := NewImportService(sourceWithData(), store, newFakeReportStore(), fastOptions())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Run(context.Background())
	}()

	<-store.entered

	_, err := svc.Start(context.Background())
	assert.ErrorIs(t, err, ErrConcurrentRun)
	_, err = svc.DryRun(context.Background())
	assert.ErrorIs(t, err, ErrConcurrentRun)

	close(store.release)
	<-done

	// После завершения запуска сервис снова свободен
	_, err = svc.DryRun(context.Background())
	assert.NoError(t, err)
}

func TestFetchRetriesTransientFailure(t *testing.T) {
	src := sourceWithData()
	src.failTimes = map[string]int{"projects": 2}
	store := &fakeStore{}
	svc := NewImportService(src, store, newFakeReportStore(), Options{MaxFetchRetries: 3, FetchInitialInterval: time.Millisecond})

	report, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, report.Status)
	assert.Equal(t, 1, store.callCount())
}

func TestCancelledContextAbortsBeforeStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &fakeStore{}
	svc := NewImportService(sourceWithData(), store, newFakeReportStore(), fastOptions())

	report, err := svc.Run(ctx)

	require.Error(t, err)
	require.NotNil(t, report)
	assert.Equal(t, models.RunStatusFailed, report.Status)
	assert.Equal(t, 0, store.callCount())
}

func TestCancelDuringReplaceIsNotPropagated(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := &fakeStore{onEnter: cancel}
	svc := NewImportService(sourceWithData(), store, newFakeReportStore(), fastOptions())

	report, err := svc.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, report.Status)
	assert.Equal(t, 1, store.callCount())
	// Хранилище получает контекст, который отмена запуска не трогает
	assert.NoError(t, store.ctxErr)
}

func TestReportUnknownRun(t *testing.T) {
	svc := NewImportService(sourceWithData(), &fakeStore{}, newFakeReportStore(), fastOptions())

	_, err := svc.Report(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
