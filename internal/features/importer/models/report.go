package models

import "time"

type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Ключи статистики по типам сущностей.
const (
	EntityStudents         = "students"
	EntityMentors          = "mentors"
	EntityProjects         = "projects"
	EntityReviews          = "reviews"
	EntitySponsoredReviews = "sponsored_reviews"
)

// EntityStats — счётчики одного типа сущностей за запуск.
type EntityStats struct {
	Fetched       int            `json:"fetched"`
	FilteredOut   map[string]int `json:"filtered_out,omitempty"`
	Imported      int            `json:"imported"`
	LinkingErrors map[string]int `json:"linking_errors,omitempty"`
}

// Statistics — статистика запуска по всем типам сущностей.
type Statistics map[string]*EntityStats

// Report выпускается ровно один раз за запуск, в том числе неуспешный.
type Report struct {
	RunID      string     `json:"run_id"`
	Status     RunStatus  `json:"status"`
	DryRun     bool       `json:"dry_run,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	DurationMS int64      `json:"duration_ms"`
	Statistics Statistics `json:"statistics"`
}
