package repository

import (
	"context"
	"errors"

	"data-importer-backend/internal/features/importer/models"
)

var ErrReportNotFound = errors.New("report not found")

// Phase сообщает координатору, какая фаза замены идёт внутри транзакции.
type Phase string

const (
	PhaseClearing  Phase = "clearing"
	PhaseInserting Phase = "inserting"
)

// Store заменяет управляемые таблицы новым датасетом. Замена атомарна:
// либо фиксируются все удаления и вставки, либо ни одно из них.
type Store interface {
	ReplaceAll(ctx context.Context, ds *models.Dataset, progress func(Phase)) error
}

// ReportStore хранит отчёты о запусках для статусных запросов.
type ReportStore interface {
	Save(ctx context.Context, report *models.Report) error
	Get(ctx context.Context, runID string) (*models.Report, error)
}
