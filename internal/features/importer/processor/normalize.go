package processor

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var telegramUsernameRe = regexp.MustCompile(`^[a-z0-9_]+$`)

// NormalizeTelegramUsername убирает префикс @ и приводит к нижнему
// регистру. Невалидные имена (не [a-z0-9_]) превращаются в nil.
func NormalizeTelegramUsername(raw string) *string {
	username := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "@"))
	if username == "" || !telegramUsernameRe.MatchString(username) {
		return nil
	}
	return &username
}

// NormalizeGithubURL приводит ссылку к виду https://github.com/<path>:
// схема и хост в нижнем регистре, без завершающего слэша. Понимает голый
// username, username/repo, gist-ссылки и задвоенные префиксы из таблиц.
func NormalizeGithubURL(raw string) *string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return nil
	}

	// Задвоенный префикс вида https://github.com/https://...
	if rest, ok := strings.CutPrefix(u, "https://github.com/https://"); ok {
		u = "https://" + rest
	}

	// Из gist-ссылки достаём только владельца
	if _, rest, found := strings.Cut(u, "gist.github.com/"); found {
		username, _, _ := strings.Cut(rest, "/")
		if username == "" {
			return nil
		}
		u = "https://github.com/" + username
	}

	lower := strings.ToLower(u)
	var path string
	switch {
	case strings.HasPrefix(lower, "https://github.com/"):
		path = u[len("https://github.com/"):]
	case strings.HasPrefix(lower, "http://github.com/"):
		path = u[len("http://github.com/"):]
	case strings.HasPrefix(lower, "github.com/"):
		path = u[len("github.com/"):]
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		// Чужой хост — это не GitHub-идентификатор
		return nil
	default:
		// Голый username или username/repo
		path = u
	}

	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return nil
	}

	normalized := "https://github.com/" + path
	return &normalized
}

// Таблица месяцев из исходных таблиц. Ключи в нижнем регистре.
var monthByName = map[string]time.Month{
	"январь":   time.January,
	"февраль":  time.February,
	"март":     time.March,
	"апрель":   time.April,
	"май":      time.May,
	"июнь":     time.June,
	"июль":     time.July,
	"август":   time.August,
	"сентябрь": time.September,
	"октябрь":  time.October,
	"ноябрь":   time.November,
	"декабрь":  time.December,
}

// ParsePeriod разбирает маркер периода вида "Ноябрь, 2021" в первое
// число месяца. Нераспознанный маркер — это nil, а не ошибка.
func ParsePeriod(raw string) *time.Time {
	parts := strings.Fields(strings.ReplaceAll(strings.TrimSpace(raw), ",", " "))
	if len(parts) < 2 {
		return nil
	}

	month, ok := monthByName[strings.ToLower(parts[0])]
	if !ok {
		return nil
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil
	}

	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return &d
}

// ParseHasReview распознаёт отметку о наличии ревью.
func ParseHasReview(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "есть", "да", "true", "yes", "1", "есть ревью":
		return true
	}
	return false
}

var paymentDateLayouts = []string{"02.01.2006", "2006-01-02"}

func parsePaymentDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range paymentDateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return &d
		}
	}
	return nil
}

var currencyReplacer = strings.NewReplacer("$", "", "€", "", "₽", "", ",", ".", " ", "")

// parseCost разбирает стоимость вида "$20,00". Пустая ячейка — валидный
// nil; непустая, но неразборчивая или отрицательная — не валидна.
func parseCost(raw string) (*decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}

	cost, err := decimal.NewFromString(currencyReplacer.Replace(raw))
	if err != nil || cost.IsNegative() {
		return nil, false
	}
	return &cost, true
}

// cell возвращает обрезанную ячейку или "", если строка короче.
// Отсутствующие с конца ячейки — валидные пустые значения.
func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func optString(raw string) *string {
	if raw == "" {
		return nil
	}
	return &raw
}

func parseTelegramUserID(raw string) *int64 {
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}
