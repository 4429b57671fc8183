package postgres

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "data-importer-backend/internal/common/errors"
	"data-importer-backend/internal/common/logger"
	"data-importer-backend/internal/features/importer/models"
	"data-importer-backend/internal/features/importer/repository"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Порядок удаления: сначала зависимые таблицы. Вставка идёт в обратном
// порядке. Таблица roles — справочник, пайплайн её не трогает.
var deleteOrder = []string{
	"sponsored_reviews",
	"reviews",
	"mentor_profiles",
	"projects",
	"users_roles",
	"users",
}

type postgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) repository.Store {
	return &postgresStore{db: db}
}

// ReplaceAll выполняет clear+insert одним атомарным юнитом. После отката
// состояние хранилища сверяется со снимком до транзакции: откат нельзя
// считать успешным, его надо проверить.
func (s *postgresStore) ReplaceAll(ctx context.Context, ds *models.Dataset, progress func(repository.Phase)) error {
	if progress == nil {
		progress = func(repository.Phase) {}
	}

	before, err := s.tableCounts(ctx)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to snapshot row counts")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeTransactionFailed, "failed to begin transaction")
	}

	if err := s.replace(ctx, tx, ds, progress); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error().Err(rbErr).Msg("Rollback failed")
		}
		s.verifyRollback(ctx, before)
		return apperrors.Wrap(err, apperrors.ErrCodeTransactionFailed, "full replace rolled back")
	}

	if err := tx.Commit(); err != nil {
		s.verifyRollback(ctx, before)
		return apperrors.Wrap(err, apperrors.ErrCodeTransactionFailed, "failed to commit full replace")
	}

	logger.Info().
		Int("users", len(ds.Users)).
		Int("projects", len(ds.Projects)).
		Int("reviews", len(ds.Reviews)).
		Int("sponsored_reviews", len(ds.SponsoredReviews)).
		Msg("Full replace committed")

	return nil
}

func (s *postgresStore) replace(ctx context.Context, tx *sql.Tx, ds *models.Dataset, progress func(repository.Phase)) error {
	progress(repository.PhaseClearing)
	for _, table := range deleteOrder {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	roleIDs, err := loadRoleIDs(ctx, tx)
	if err != nil {
		return err
	}

	progress(repository.PhaseInserting)

	userIDs := make([]int64, len(ds.Users))
	for i, u := range ds.Users {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO users (telegram_user_id, telegram_username, github_url) VALUES ($1, $2, $3) RETURNING id`,
			u.TelegramUserID, u.TelegramUsername, u.GithubURL,
		).Scan(&userIDs[i])
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
	}

	for i, u := range ds.Users {
		for _, role := range u.Roles {
			roleID, ok := roleIDs[role]
			if !ok {
				return fmt.Errorf("reference role %q is missing", role)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO users_roles (user_id, role_id) VALUES ($1, $2)`,
				userIDs[i], roleID,
			); err != nil {
				return fmt.Errorf("failed to insert user role: %w", err)
			}
		}
	}

	for i, u := range ds.Users {
		if u.MentorProfile == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO mentor_profiles (user_id, full_name, languages, services, price_type, website_url) VALUES ($1, $2, $3, $4, $5, $6)`,
			userIDs[i], u.MentorProfile.FullName, u.MentorProfile.Languages,
			u.MentorProfile.Services, u.MentorProfile.PriceType, u.MentorProfile.WebsiteURL,
		); err != nil {
			return fmt.Errorf("failed to insert mentor profile: %w", err)
		}
	}

	projectIDs := make([]int64, len(ds.Projects))
	for i, p := range ds.Projects {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO projects (name, language, repository_url, submission_date, has_review, student_id) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			p.Name, p.Language, p.RepositoryURL, p.SubmissionDate, p.HasReview, userIDs[p.StudentIdx],
		).Scan(&projectIDs[i])
		if err != nil {
			return fmt.Errorf("failed to insert project %q: %w", p.Name, err)
		}
	}

	reviewIDs := make([]int64, len(ds.Reviews))
	for i, r := range ds.Reviews {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO reviews (project_id, mentor_id, period_date, review_type, review_url) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			projectIDs[r.ProjectIdx], userIDs[r.MentorIdx], r.PeriodDate, r.ReviewType, r.ReviewURL,
		).Scan(&reviewIDs[i])
		if err != nil {
			return fmt.Errorf("failed to insert review: %w", err)
		}
	}

	for _, sr := range ds.SponsoredReviews {
		var reviewID, sponsorID interface{}
		if sr.ReviewIdx != nil {
			reviewID = reviewIDs[*sr.ReviewIdx]
		}
		if sr.SponsorIdx != nil {
			sponsorID = userIDs[*sr.SponsorIdx]
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sponsored_reviews (review_id, project_id, mentor_id, sponsor_id, cost, currency, payment_status, payment_date, payment_method, notes, review_date, telegram_message_url) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			reviewID, projectIDs[sr.ProjectIdx], userIDs[sr.MentorIdx], sponsorID,
			nullDecimal(sr.Cost), sr.Currency, sr.PaymentStatus, sr.PaymentDate,
			sr.PaymentMethod, sr.Notes, sr.ReviewDate, sr.TelegramMessageURL,
		); err != nil {
			return fmt.Errorf("failed to insert sponsored review: %w", err)
		}
	}

	return nil
}

func loadRoleIDs(ctx context.Context, tx *sql.Tx) (map[string]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, name FROM roles`)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	defer rows.Close()

	roleIDs := map[string]int64{}
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roleIDs[name] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read roles: %w", err)
	}
	return roleIDs, nil
}

type tableCounts map[string]int64

func (s *postgresStore) tableCounts(ctx context.Context) (tableCounts, error) {
	counts := tableCounts{}
	for _, table := range deleteOrder {
		var n int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// verifyRollback сверяет счётчики строк со снимком до транзакции.
// Расхождение означает, что хранилище не вернулось к прежнему состоянию.
func (s *postgresStore) verifyRollback(ctx context.Context, before tableCounts) {
	after, err := s.tableCounts(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to verify rollback state")
		return
	}
	for table, want := range before {
		if after[table] != want {
			logger.Error().
				Str("table", table).
				Int64("before", want).
				Int64("after", after[table]).
				Msg("Store did not restore pre-transaction state after rollback")
			return
		}
	}
	logger.Info().Msg("Rollback verified, pre-transaction state intact")
}

func nullDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return *d
}
