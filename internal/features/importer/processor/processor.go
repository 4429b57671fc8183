package processor

import (
	"time"

	"data-importer-backend/internal/common/logger"
	"data-importer-backend/internal/features/importer/models"
)

// Processor превращает сырые строки в связный датасет. Этапы строго
// последовательны: студенты и менторы до проектов, проекты до ревью,
// затем спонсируемые ревью.
type Processor struct{}

func New() *Processor {
	return &Processor{}
}

func (p *Processor) Process(raw *models.RawData) (*models.Dataset, models.Statistics) {
	st := newStatsCollector()
	l := newLinker()
	ds := &models.Dataset{}

	p.processStudents(raw.Students, ds, l, st)
	p.processMentors(raw.Mentors, ds, l, st)
	p.processProjects(raw.Projects, ds, l, st)
	p.processReviews(raw.Reviews, ds, l, st)
	p.processSponsoredReviews(raw.SponsoredReviews, ds, l, st)

	logger.Info().
		Int("users", len(ds.Users)).
		Int("projects", len(ds.Projects)).
		Int("reviews", len(ds.Reviews)).
		Int("sponsored_reviews", len(ds.SponsoredReviews)).
		Msg("Processing completed")

	return ds, st.snapshot()
}

func (p *Processor) processStudents(rows [][]string, ds *models.Dataset, l *linker, st *statsCollector) {
	for _, row := range rows {
		st.fetched(models.EntityStudents)
		c := studentFromRow(row)

		// Студенту достаточно одного идентификатора: telegram или github
		if c.telegramUsername == nil && c.githubURL == nil {
			st.filtered(models.EntityStudents, reasonNoIdentifiers)
			continue
		}

		if l.studentDuplicate(c.githubURL, c.telegramUsername) {
			st.linkMiss(models.EntityStudents, reasonDuplicate)
			continue
		}

		ds.Users = append(ds.Users, models.UserRecord{
			TelegramUserID:   c.telegramUserID,
			TelegramUsername: c.telegramUsername,
			GithubURL:        c.githubURL,
			Roles:            []string{models.RoleStudent},
		})
		l.addStudent(len(ds.Users)-1, c.githubURL, c.telegramUsername)
		st.imported(models.EntityStudents)
	}
}

func (p *Processor) processMentors(rows [][]string, ds *models.Dataset, l *linker, st *statsCollector) {
	for _, row := range rows {
		st.fetched(models.EntityMentors)
		c := mentorFromRow(row)

		// Ментор без telegram бесполезен: авторизация ходит только по нему
		if c.telegramUsername == nil {
			st.filtered(models.EntityMentors, reasonNoTelegram)
			continue
		}

		if _, ok := l.resolveMentor(*c.telegramUsername); ok {
			st.linkMiss(models.EntityMentors, reasonDuplicate)
			continue
		}

		profile := c.profile
		if idx, ok := l.studentByTelegram[*c.telegramUsername]; ok {
			// Тот же человек уже пришёл как студент: добавляем роль,
			// а не второго пользователя
			ds.Users[idx].Roles = append(ds.Users[idx].Roles, models.RoleMentor)
			ds.Users[idx].MentorProfile = &profile
			l.mentorByTelegram[*c.telegramUsername] = idx
		} else {
			ds.Users = append(ds.Users, models.UserRecord{
				TelegramUsername: c.telegramUsername,
				Roles:            []string{models.RoleMentor},
				MentorProfile:    &profile,
			})
			l.mentorByTelegram[*c.telegramUsername] = len(ds.Users) - 1
		}
		st.imported(models.EntityMentors)
	}
}

func (p *Processor) processProjects(rows [][]string, ds *models.Dataset, l *linker, st *statsCollector) {
	var periodDate *time.Time
	for _, row := range rows {
		// Маркер периода действует на все строки до следующего маркера
		if isPeriodHeader(row) {
			periodDate = ParsePeriod(cell(row, 0))
			continue
		}

		st.fetched(models.EntityProjects)
		c := projectFromRow(row, periodDate)

		if c.name == "" || c.authorGithubURL == nil {
			st.filtered(models.EntityProjects, reasonMissingFields)
			continue
		}

		studentIdx, ok := l.resolveStudent(*c.authorGithubURL)
		if !ok {
			st.linkMiss(models.EntityProjects, reasonOrphanProject)
			continue
		}

		if _, dup := l.resolveProject(c.name); dup {
			st.linkMiss(models.EntityProjects, reasonDuplicate)
			continue
		}

		ds.Projects = append(ds.Projects, models.ProjectRecord{
			Name:           c.name,
			Language:       c.language,
			RepositoryURL:  c.repositoryURL,
			SubmissionDate: c.submissionDate,
			HasReview:      c.hasReview,
			StudentIdx:     studentIdx,
		})
		l.projectByName[c.name] = len(ds.Projects) - 1
		st.imported(models.EntityProjects)
	}
}

func (p *Processor) processReviews(rows [][]string, ds *models.Dataset, l *linker, st *statsCollector) {
	for _, row := range rows {
		st.fetched(models.EntityReviews)
		c := reviewFromRow(row)

		if c.projectName == "" || c.mentorTelegram == nil {
			st.filtered(models.EntityReviews, reasonMissingFields)
			continue
		}

		projectIdx, okProject := l.resolveProject(c.projectName)
		mentorIdx, okMentor := l.resolveMentor(*c.mentorTelegram)
		if !okProject || !okMentor {
			st.linkMiss(models.EntityReviews, reasonUnlinkedReview)
			continue
		}

		ds.Reviews = append(ds.Reviews, models.ReviewRecord{
			ProjectIdx: projectIdx,
			MentorIdx:  mentorIdx,
			PeriodDate: c.periodDate,
			ReviewType: c.reviewType,
			ReviewURL:  c.reviewURL,
		})
		l.addReviewURL(len(ds.Reviews)-1, c.reviewURL)
		st.imported(models.EntityReviews)
	}
}

func (p *Processor) processSponsoredReviews(rows [][]string, ds *models.Dataset, l *linker, st *statsCollector) {
	for _, row := range rows {
		if isBlankRow(row) || isSponsoredHeader(row) {
			continue
		}

		st.fetched(models.EntitySponsoredReviews)
		c := sponsoredFromRow(row)

		if c.mentorTelegram == nil || c.projectName == "" {
			st.filtered(models.EntitySponsoredReviews, reasonMissingFields)
			continue
		}
		if !c.costValid {
			st.filtered(models.EntitySponsoredReviews, reasonInvalidCost)
			continue
		}

		mentorIdx, okMentor := l.resolveMentor(*c.mentorTelegram)
		projectIdx, okProject := l.resolveProject(c.projectName)
		if !okMentor || !okProject {
			st.linkMiss(models.EntitySponsoredReviews, reasonUnlinked)
			continue
		}

		rec := models.SponsoredReviewRecord{
			ProjectIdx:         projectIdx,
			MentorIdx:          mentorIdx,
			Cost:               c.cost,
			Currency:           c.currency,
			PaymentStatus:      c.paymentStatus,
			PaymentDate:        c.paymentDate,
			PaymentMethod:      c.paymentMethod,
			Notes:              c.notes,
			ReviewDate:         c.reviewDate,
			TelegramMessageURL: c.telegramMessageURL,
		}

		// Ссылки на ревью и спонсора опциональны: не нашли — оставляем пустыми
		if c.reviewURL != nil {
			if idx, ok := l.resolveReview(*c.reviewURL); ok {
				rec.ReviewIdx = &idx
			}
		}
		if rec.ReviewIdx == nil && c.telegramMessageURL != nil {
			if idx, ok := l.resolveReview(*c.telegramMessageURL); ok {
				rec.ReviewIdx = &idx
			}
		}
		if c.sponsorTelegram != nil {
			if idx, ok := l.resolveMentor(*c.sponsorTelegram); ok {
				rec.SponsorIdx = &idx
			}
		}

		ds.SponsoredReviews = append(ds.SponsoredReviews, rec)
		st.imported(models.EntitySponsoredReviews)
	}
}
