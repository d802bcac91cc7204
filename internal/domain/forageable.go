package domain

// Forageable is a single tracked foraging spot.
// An ID of zero means the record has not been persisted yet; the DAO assigns
// the ID on insert and it never changes afterwards.
type Forageable struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	InSeason bool   `json:"in_season"`
	Notes    string `json:"notes"`
}
