package processor

import (
	"strings"
	"time"

	"data-importer-backend/internal/features/importer/models"

	"github.com/shopspring/decimal"
)

// Типизированные кандидаты — результат нормализации одной строки.
// Нормализация не фильтрует: пустые поля остаются nil и решение об
// отбраковке принимает фильтр.

type studentCandidate struct {
	githubURL        *string
	telegramUserID   *int64
	telegramUsername *string
}

// Диапазон студентов: github_url, telegram_id, telegram_username.
func studentFromRow(row []string) studentCandidate {
	return studentCandidate{
		githubURL:        NormalizeGithubURL(cell(row, 0)),
		telegramUserID:   parseTelegramUserID(cell(row, 1)),
		telegramUsername: NormalizeTelegramUsername(cell(row, 2)),
	}
}

type mentorCandidate struct {
	telegramUsername *string
	profile          models.MentorProfileRecord
}

// Диапазон менторов: full_name, telegram_username, languages, services,
// price_type, website_url.
func mentorFromRow(row []string) mentorCandidate {
	return mentorCandidate{
		telegramUsername: NormalizeTelegramUsername(cell(row, 1)),
		profile: models.MentorProfileRecord{
			FullName:   optString(cell(row, 0)),
			Languages:  optString(cell(row, 2)),
			Services:   optString(cell(row, 3)),
			PriceType:  optString(cell(row, 4)),
			WebsiteURL: optString(cell(row, 5)),
		},
	}
}

type projectCandidate struct {
	name            string
	language        *string
	repositoryURL   *string
	authorGithubURL *string
	hasReview       bool
	submissionDate  *time.Time
}

// Диапазон проектов: period_or_blank, name, language, repo_name,
// repo_url, author_name, author_github_url, has_review_flag.
func projectFromRow(row []string, period *time.Time) projectCandidate {
	return projectCandidate{
		name:            cell(row, 1),
		language:        optString(cell(row, 2)),
		repositoryURL:   optString(cell(row, 4)),
		authorGithubURL: NormalizeGithubURL(cell(row, 6)),
		hasReview:       ParseHasReview(cell(row, 7)),
		submissionDate:  period,
	}
}

// isPeriodHeader отличает строку-заголовок периода, вкраплённую между
// проектами: в ней нет имени проекта во второй колонке.
func isPeriodHeader(row []string) bool {
	return len(row) <= 2 || cell(row, 1) == ""
}

type reviewCandidate struct {
	periodDate     *time.Time
	projectName    string
	reviewType     *string
	reviewURL      *string
	mentorTelegram *string
}

// Диапазон ревью: period, project_name, language, repo_url, review_type,
// review_url, author_name, mentor_telegram, author_url.
func reviewFromRow(row []string) reviewCandidate {
	return reviewCandidate{
		periodDate:     ParsePeriod(cell(row, 0)),
		projectName:    cell(row, 1),
		reviewType:     optString(cell(row, 4)),
		reviewURL:      optString(cell(row, 5)),
		mentorTelegram: NormalizeTelegramUsername(cell(row, 7)),
	}
}

type sponsoredCandidate struct {
	reviewDate         *time.Time
	mentorTelegram     *string
	projectName        string
	costRaw            string
	cost               *decimal.Decimal
	costValid          bool
	currency           string
	paymentStatus      string
	paymentDate        *time.Time
	sponsorTelegram    *string
	paymentMethod      *string
	notes              *string
	reviewURL          *string
	telegramMessageURL *string
}

// Диапазон спонсируемых ревью: date, mentor, unused_student, project,
// cost, currency, payment_status, payment_date, sponsor, payment_method,
// notes, review_url, telegram_message_url.
func sponsoredFromRow(row []string) sponsoredCandidate {
	c := sponsoredCandidate{
		reviewDate:         ParsePeriod(cell(row, 0)),
		mentorTelegram:     NormalizeTelegramUsername(cell(row, 1)),
		projectName:        cell(row, 3),
		costRaw:            cell(row, 4),
		currency:           cell(row, 5),
		paymentStatus:      strings.ToLower(cell(row, 6)),
		paymentDate:        parsePaymentDate(cell(row, 7)),
		sponsorTelegram:    NormalizeTelegramUsername(cell(row, 8)),
		paymentMethod:      optString(cell(row, 9)),
		notes:              optString(cell(row, 10)),
		reviewURL:          optString(cell(row, 11)),
		telegramMessageURL: optString(cell(row, 12)),
	}
	c.cost, c.costValid = parseCost(c.costRaw)
	if c.currency == "" {
		c.currency = "USD"
	}
	if c.paymentStatus == "" {
		c.paymentStatus = "pending"
	}
	return c
}

var sponsoredHeaderKeywords = []string{"период", "github", "telegram", "стоимость", "ревью", "месяц"}

// isSponsoredHeader отсекает заголовки и строки-периоды, перемешанные с
// данными в финансовом диапазоне.
func isSponsoredHeader(row []string) bool {
	first := strings.ToLower(cell(row, 0))
	if first != "" {
		for _, kw := range sponsoredHeaderKeywords {
			if strings.Contains(first, kw) {
				return true
			}
		}
	}

	// Строка, где заполнена только первая ячейка — маркер периода
	rest := false
	for i := 1; i < len(row); i++ {
		if cell(row, i) != "" {
			rest = true
			break
		}
	}
	return first != "" && !rest
}

func isBlankRow(row []string) bool {
	for i := range row {
		if cell(row, i) != "" {
			return false
		}
	}
	return true
}
