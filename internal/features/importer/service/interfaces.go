package service

import (
	"context"

	"data-importer-backend/internal/features/importer/models"
)

// SheetSource — источник сырых строк, по одному чтению на диапазон.
// Чтения независимы и могут выполняться параллельно.
type SheetSource interface {
	Students(ctx context.Context) ([][]string, error)
	Projects(ctx context.Context) ([][]string, error)
	Reviews(ctx context.Context) ([][]string, error)
	Mentors(ctx context.Context) ([][]string, error)
	SponsoredReviews(ctx context.Context) ([][]string, error)
}

type ImportService interface {
	// Start запускает импорт в фоне и сразу возвращает идентификатор запуска.
	Start(ctx context.Context) (string, error)
	// Run выполняет импорт синхронно и возвращает отчёт.
	Run(ctx context.Context) (*models.Report, error)
	// DryRun прогоняет выборку и обработку, не трогая хранилище.
	DryRun(ctx context.Context) (*models.Report, error)
	// Report возвращает отчёт ранее запущенного импорта.
	Report(ctx context.Context, runID string) (*models.Report, error)
}
