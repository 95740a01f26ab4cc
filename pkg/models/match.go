package models

import "time"

// Match represents a fixture. Matches are immutable once received from the feed
type Match struct {
	ID       string    `json:"id"`
	HomeTeam string    `json:"home_team"`
	AwayTeam string    `json:"away_team"`
	League   string    `json:"league"`
	Kickoff  time.Time `json:"kickoff"`
	Venue    *string   `json:"venue,omitempty"`
	Weather  *string   `json:"weather,omitempty"`
}

// TeamForm is the recent-form record an upstream feed provides for a team
type TeamForm struct {
	Team         string    `json:"team"`
	Recent       []string  `json:"recent"` // "W", "D" or "L", most recent last
	GoalsFor     int       `json:"goals_for"`
	GoalsAgainst int       `json:"goals_against"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Points returns league points earned over the recent results
func (f TeamForm) Points() int {
	points := 0
	for _, r := range f.Recent {
		switch r {
		case "W":
			points += 3
		case "D":
			points++
		}
	}
	return points
}

// MatchResult is the final score used to grade bets
type MatchResult struct {
	MatchID   string `json:"match_id"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	Completed bool   `json:"completed"`
	Void      bool   `json:"void"` // abandoned or cancelled
}

// TotalGoals returns the combined score
func (r MatchResult) TotalGoals() int {
	return r.HomeScore + r.AwayScore
}
