package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	apperrors "data-importer-backend/internal/common/errors"
	"data-importer-backend/internal/common/logger"
	"data-importer-backend/internal/features/importer/models"
	"data-importer-backend/internal/features/importer/processor"
	"data-importer-backend/internal/features/importer/repository"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// Состояния запуска. Новый запуск допускается только из stateIdle.
type runState int32

const (
	stateIdle runState = iota
	stateFetching
	stateProcessing
	stateClearing
	stateInserting
	stateReporting
)

func (s runState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateFetching:
		return "fetching"
	case stateProcessing:
		return "processing"
	case stateClearing:
		return "clearing"
	case stateInserting:
		return "inserting"
	case stateReporting:
		return "reporting"
	}
	return "unknown"
}

type Options struct {
	// Повторы чтения источника с экспоненциальной задержкой
	MaxFetchRetries      int
	FetchInitialInterval time.Duration

	// Импортировать ли спонсируемые ревью
	EnableFinancial bool
}

type importService struct {
	source  SheetSource
	store   repository.Store
	reports repository.ReportStore
	opts    Options

	state atomic.Int32
}

func NewImportService(source SheetSource, store repository.Store, reports repository.ReportStore, opts Options) ImportService {
	if opts.MaxFetchRetries <= 0 {
		opts.MaxFetchRetries = 4
	}
	if opts.FetchInitialInterval <= 0 {
		opts.FetchInitialInterval = 500 * time.Millisecond
	}
	return &importService{
		source:  source,
		store:   store,
		reports: reports,
		opts:    opts,
	}
}

// tryBegin — single-flight: CAS из idle в fetching, иначе запуск занят.
func (s *importService) tryBegin() bool {
	return s.state.CompareAndSwap(int32(stateIdle), int32(stateFetching))
}

func (s *importService) setState(st runState) {
	s.state.Store(int32(st))
	logger.Debug().Str("state", st.String()).Msg("Import state changed")
}

func (s *importService) Start(ctx context.Context) (string, error) {
	if !s.tryBegin() {
		return "", ErrConcurrentRun
	}

	runID := uuid.NewString()
	go func() {
		// Фоновый запуск живёт дольше HTTP-запроса
		if _, err := s.run(context.Background(), runID, false); err != nil {
			logger.Error().Err(err).Str("run_id", runID).Msg("Background import failed")
		}
	}()

	return runID, nil
}

func (s *importService) Run(ctx context.Context) (*models.Report, error) {
	if !s.tryBegin() {
		return nil, ErrConcurrentRun
	}
	return s.run(ctx, uuid.NewString(), false)
}

func (s *importService) DryRun(ctx context.Context) (*models.Report, error) {
	if !s.tryBegin() {
		return nil, ErrConcurrentRun
	}
	return s.run(ctx, uuid.NewString(), true)
}

func (s *importService) Report(ctx context.Context, runID string) (*models.Report, error) {
	report, err := s.reports.Get(ctx, runID)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return report, nil
}

// run ведёт машину состояний одного запуска. Отчёт выпускается ровно один
// раз, в том числе при фатальной ошибке.
func (s *importService) run(ctx context.Context, runID string, dryRun bool) (*models.Report, error) {
	defer s.state.Store(int32(stateIdle))

	startedAt := time.Now()
	logger.Info().Str("run_id", runID).Bool("dry_run", dryRun).Msg("Import run started")

	stats := models.Statistics{}
	runErr := func() error {
		raw, err := s.fetchAll(ctx)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeFetchFailed, "failed to fetch source ranges")
		}
		if err := ctx.Err(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "run cancelled")
		}

		s.setState(stateProcessing)
		var ds *models.Dataset
		ds, stats = processor.New().Process(raw)
		if err := ctx.Err(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "run cancelled")
		}

		if dryRun {
			return nil
		}

		s.setState(stateClearing)
		// С этого места отмена структурно невозможна: без справочных
		// строк хранилище оставлять нельзя
		return s.store.ReplaceAll(context.WithoutCancel(ctx), ds, func(phase repository.Phase) {
			if phase == repository.PhaseInserting {
				s.setState(stateInserting)
			}
		})
	}()

	s.setState(stateReporting)
	report := buildReport(runID, dryRun, startedAt, stats, runErr)
	s.saveReport(context.WithoutCancel(ctx), report)

	if runErr != nil {
		logger.Error().Err(runErr).Str("run_id", runID).Msg("Import run failed")
	} else {
		logger.Info().
			Str("run_id", runID).
			Int64("duration_ms", report.DurationMS).
			Msg("Import run completed")
	}

	return report, runErr
}

// fetchAll читает все диапазоны параллельно; каждое чтение повторяется с
// ограниченной экспоненциальной задержкой. Любая невосстановимая ошибка
// валит запуск до каких-либо обращений к хранилищу.
func (s *importService) fetchAll(ctx context.Context) (*models.RawData, error) {
	type rangeRead struct {
		name string
		fn   func(context.Context) ([][]string, error)
		dst  *[][]string
	}

	raw := &models.RawData{}
	reads := []rangeRead{
		{"students", s.source.Students, &raw.Students},
		{"projects", s.source.Projects, &raw.Projects},
		{"reviews", s.source.Reviews, &raw.Reviews},
		{"mentors", s.source.Mentors, &raw.Mentors},
	}
	if s.opts.EnableFinancial {
		reads = append(reads, rangeRead{"sponsored_reviews", s.source.SponsoredReviews, &raw.SponsoredReviews})
	}

	var wg sync.WaitGroup
	errs := make([]error, len(reads))
	for i, read := range reads {
		wg.Add(1)
		go func(i int, read rangeRead) {
			defer wg.Done()
			rows, err := s.fetchRange(ctx, read.name, read.fn)
			if err != nil {
				errs[i] = err
				return
			}
			*read.dst = rows
		}(i, read)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return raw, nil
}

func (s *importService) fetchRange(ctx context.Context, name string, fn func(context.Context) ([][]string, error)) ([][]string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.FetchInitialInterval

	var rows [][]string
	op := func() error {
		var err error
		rows, err = fn(ctx)
		if err != nil {
			logger.Warn().Err(err).Str("range", name).Msg("Range read failed, retrying")
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.opts.MaxFetchRetries)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("range %s: %w", name, err)
	}
	return rows, nil
}

func (s *importService) saveReport(ctx context.Context, report *models.Report) {
	if s.reports == nil {
		return
	}
	if err := s.reports.Save(ctx, report); err != nil {
		// Отчёт уже есть у вызывающего, потеря копии в хранилище не фатальна
		logger.Error().Err(err).Str("run_id", report.RunID).Msg("Failed to save report")
	}
}

func buildReport(runID string, dryRun bool, startedAt time.Time, stats models.Statistics, runErr error) *models.Report {
	finishedAt := time.Now()
	report := &models.Report{
		RunID:      runID,
		Status:     models.RunStatusCompleted,
		DryRun:     dryRun,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		DurationMS: finishedAt.Sub(startedAt).Milliseconds(),
		Statistics: stats,
	}
	if runErr != nil {
		report.Status = models.RunStatusFailed
		report.Error = runErr.Error()
	}
	return report
}
