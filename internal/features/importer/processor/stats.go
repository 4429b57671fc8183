package processor

import "data-importer-backend/internal/features/importer/models"

// Причины отбраковки. Каждая отброшенная запись попадает в счётчик,
// молча из отчёта не исчезает ничего.
const (
	reasonNoIdentifiers  = "no_identifiers"
	reasonNoTelegram     = "no_telegram"
	reasonMissingFields  = "missing_fields"
	reasonInvalidCost    = "invalid_cost"
	reasonDuplicate      = "duplicate"
	reasonOrphanProject  = "orphan_project"
	reasonUnlinkedReview = "unlinked_review"
	reasonUnlinked       = "unlinked"
)

type statsCollector struct {
	entries models.Statistics
}

func newStatsCollector() *statsCollector {
	entries := models.Statistics{}
	for _, entity := range []string{
		models.EntityStudents,
		models.EntityMentors,
		models.EntityProjects,
		models.EntityReviews,
		models.EntitySponsoredReviews,
	} {
		entries[entity] = &models.EntityStats{}
	}
	return &statsCollector{entries: entries}
}

func (s *statsCollector) fetched(entity string) {
	s.entries[entity].Fetched++
}

func (s *statsCollector) filtered(entity, reason string) {
	e := s.entries[entity]
	if e.FilteredOut == nil {
		e.FilteredOut = map[string]int{}
	}
	e.FilteredOut[reason]++
}

func (s *statsCollector) linkMiss(entity, reason string) {
	e := s.entries[entity]
	if e.LinkingErrors == nil {
		e.LinkingErrors = map[string]int{}
	}
	e.LinkingErrors[reason]++
}

func (s *statsCollector) imported(entity string) {
	s.entries[entity].Imported++
}

func (s *statsCollector) snapshot() models.Statistics {
	return s.entries
}
