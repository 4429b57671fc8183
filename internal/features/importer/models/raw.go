package models

// RawData — сырые строки пяти диапазонов, как их вернул источник.
// Ячейки могут отсутствовать с конца строки, это валидно.
type RawData struct {
	Students         [][]string
	Projects         [][]string
	Reviews          [][]string
	Mentors          [][]string
	SponsoredReviews [][]string
}
