package processor

// linker держит индексы по натуральным ключам. Порядок построения
// фиксирован: студенты и менторы индексируются до проектов, проекты —
// до ревью, потому что каждый следующий этап читает индекс предыдущего.
type linker struct {
	studentByGithub   map[string]int
	studentByTelegram map[string]int
	mentorByTelegram  map[string]int
	projectByName     map[string]int
	reviewByURL       map[string]int
}

func newLinker() *linker {
	return &linker{
		studentByGithub:   map[string]int{},
		studentByTelegram: map[string]int{},
		mentorByTelegram:  map[string]int{},
		projectByName:     map[string]int{},
		reviewByURL:       map[string]int{},
	}
}

// Индексируется только первое вхождение ключа: источник считается
// упорядоченным, и при дубликатах побеждает более ранняя запись.

func (l *linker) addStudent(idx int, github, telegram *string) {
	if github != nil {
		l.studentByGithub[*github] = idx
	}
	if telegram != nil {
		l.studentByTelegram[*telegram] = idx
	}
}

func (l *linker) studentDuplicate(github, telegram *string) bool {
	if github != nil {
		if _, ok := l.studentByGithub[*github]; ok {
			return true
		}
	}
	if telegram != nil {
		if _, ok := l.studentByTelegram[*telegram]; ok {
			return true
		}
	}
	return false
}

func (l *linker) resolveStudent(github string) (int, bool) {
	idx, ok := l.studentByGithub[github]
	return idx, ok
}

func (l *linker) resolveMentor(telegram string) (int, bool) {
	idx, ok := l.mentorByTelegram[telegram]
	return idx, ok
}

func (l *linker) resolveProject(name string) (int, bool) {
	idx, ok := l.projectByName[name]
	return idx, ok
}

func (l *linker) resolveReview(url string) (int, bool) {
	idx, ok := l.reviewByURL[url]
	return idx, ok
}

func (l *linker) addReviewURL(idx int, url *string) {
	if url == nil {
		return
	}
	if _, ok := l.reviewByURL[*url]; !ok {
		l.reviewByURL[*url] = idx
	}
}
