package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Имена ролей. Роли — справочные данные, пайплайн их не пересоздаёт.
const (
	RoleAdmin   = "ADMIN"
	RoleStudent = "STUDENT"
	RoleMentor  = "MENTOR"
)

// MentorProfileRecord — профиль ментора из таблицы менторов.
type MentorProfileRecord struct {
	FullName   *string
	Languages  *string
	Services   *string
	PriceType  *string
	WebsiteURL *string
}

// UserRecord — пользователь нового датасета. Один пользователь может
// нести обе роли, если студент и ментор совпали по telegram username.
// Суррогатные ID появляются только в момент вставки; до этого записи
// связаны индексами внутри Dataset.
type UserRecord struct {
	TelegramUserID   *int64
	TelegramUsername *string
	GithubURL        *string
	Roles            []string
	MentorProfile    *MentorProfileRecord
}

func (u *UserRecord) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ProjectRecord ссылается на автора индексом в Dataset.Users.
type ProjectRecord struct {
	Name           string
	Language       *string
	RepositoryURL  *string
	SubmissionDate *time.Time
	HasReview      bool
	StudentIdx     int
}

// ReviewRecord ссылается на проект и ментора индексами.
type ReviewRecord struct {
	ProjectIdx int
	MentorIdx  int
	PeriodDate *time.Time
	ReviewType *string
	ReviewURL  *string
}

// SponsoredReviewRecord: проект и ментор обязательны, ревью и спонсор —
// опциональные ссылки.
type SponsoredReviewRecord struct {
	ProjectIdx         int
	MentorIdx          int
	ReviewIdx          *int
	SponsorIdx         *int
	Cost               *decimal.Decimal
	Currency           string
	PaymentStatus      string
	PaymentDate        *time.Time
	PaymentMethod      *string
	Notes              *string
	ReviewDate         *time.Time
	TelegramMessageURL *string
}

// Dataset — полный результат обработки одного запуска импорта.
// Содержимое хранилища целиком заменяется этим набором.
type Dataset struct {
	Users            []UserRecord
	Projects         []ProjectRecord
	Reviews          []ReviewRecord
	SponsoredReviews []SponsoredReviewRecord
}
