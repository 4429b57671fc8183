package sheets

import (
	"context"

	"data-importer-backend/internal/common/config"
)

// Source связывает клиент с настроенными диапазонами двух таблиц:
// основной (студенты, проекты, ревью) и таблицы менторов.
type Source struct {
	client *Client
	cfg    *config.Config
}

func NewSource(client *Client, cfg *config.Config) *Source {
	return &Source{client: client, cfg: cfg}
}

func (s *Source) Students(ctx context.Context) ([][]string, error) {
	return s.client.Values(ctx, s.cfg.Sheets.MainSpreadsheetID, s.cfg.Sheets.StudentsRange)
}

func (s *Source) Projects(ctx context.Context) ([][]string, error) {
	return s.client.Values(ctx, s.cfg.Sheets.MainSpreadsheetID, s.cfg.Sheets.ProjectsRange)
}

func (s *Source) Reviews(ctx context.Context) ([][]string, error) {
	return s.client.Values(ctx, s.cfg.Sheets.MainSpreadsheetID, s.cfg.Sheets.ReviewsRange)
}

func (s *Source) Mentors(ctx context.Context) ([][]string, error) {
	return s.client.Values(ctx, s.cfg.Sheets.MentorsSpreadsheetID, s.cfg.Sheets.MentorsRange)
}

func (s *Source) SponsoredReviews(ctx context.Context) ([][]string, error) {
	return s.client.Values(ctx, s.cfg.Sheets.MainSpreadsheetID, s.cfg.Sheets.SponsoredReviewsRange)
}
