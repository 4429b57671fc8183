package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"data-importer-backend/internal/features/importer/models"
	"data-importer-backend/internal/features/importer/repository"

	"github.com/redis/go-redis/v9"
)

const reportKeyPrefix = "import:report:"

// reportRepository хранит отчёты о запусках в Redis с TTL, чтобы статус
// импорта был доступен любому инстансу, а не только запустившему.
type reportRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReportRepository(client *redis.Client, ttl time.Duration) repository.ReportStore {
	return &reportRepository{client: client, ttl: ttl}
}

func (r *reportRepository) Save(ctx context.Context, report *models.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := r.client.Set(ctx, reportKeyPrefix+report.RunID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (r *reportRepository) Get(ctx context.Context, runID string) (*models.Report, error) {
	payload, err := r.client.Get(ctx, reportKeyPrefix+runID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report models.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}
