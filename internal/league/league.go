// Package league holds the fantasy-league records fetched from the provider
// and written to disk: teams and their official weekly scores.
package league

// Team is a fantasy team in a league.
type Team struct {
	ID   int
	Name string
}

// TeamScore is the official provider total for one team-week.
type TeamScore struct {
	Season   int
	Week     int
	TeamID   int
	TeamName string
	Points   float64
}
