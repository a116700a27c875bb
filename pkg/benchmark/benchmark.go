// Package benchmark defines the team KPI model shared by the store
// client and the HTTP API.
package benchmark

import "time"

// Team identifies one of the two wallboard teams. The set is closed:
// rows are never created or deleted, only updated.
type Team string

const (
	TeamAvida     Team = "avida"
	TeamSantander Team = "santander"
)

// teams is the fixed iteration order for reconciliation and display.
var teams = []Team{TeamAvida, TeamSantander}

// Teams returns the known team identities in their fixed order.
func Teams() []Team {
	out := make([]Team, len(teams))
	copy(out, teams)

	return out
}

// ValidTeam reports whether t is one of the known team identities.
func ValidTeam(t Team) bool {
	for _, known := range teams {
		if t == known {
			return true
		}
	}

	return false
}

// TeamBenchmark is the point-in-time KPI snapshot for one team.
type TeamBenchmark struct {
	Team             Team       `json:"team"`
	TeamName         string     `json:"team_name"`
	OverholdelsePct  float64    `json:"overholdelse_pct"`
	PreviousMonthPct float64    `json:"previous_month_pct"`
	BestMonthPct     float64    `json:"best_month_pct"`
	IncomingCases    int        `json:"incoming_cases"`
	ResolvedCases    int        `json:"resolved_cases"`
	OpenBacklog      int        `json:"open_backlog"`
	AvgHandleMinutes float64    `json:"avg_handle_minutes"`
	UpdatedAt        *time.Time `json:"updated_at"`
}

// defaults are the seed rows used when the store is not configured or
// has no record for a team. UpdatedAt nil means "never updated".
var defaults = []TeamBenchmark{
	{
		Team:             TeamAvida,
		TeamName:         "Team Avida",
		OverholdelsePct:  96.2,
		PreviousMonthPct: 95.1,
		BestMonthPct:     97.4,
		IncomingCases:    418,
		ResolvedCases:    407,
		OpenBacklog:      139,
		AvgHandleMinutes: 7.8,
	},
	{
		Team:             TeamSantander,
		TeamName:         "Team Santander",
		OverholdelsePct:  94.7,
		PreviousMonthPct: 95.3,
		BestMonthPct:     96.8,
		IncomingCases:    436,
		ResolvedCases:    401,
		OpenBacklog:      152,
		AvgHandleMinutes: 8.1,
	},
}

// Defaults returns a fresh copy of the seed rows, one per team, in the
// fixed team order.
func Defaults() []TeamBenchmark {
	out := make([]TeamBenchmark, len(defaults))
	copy(out, defaults)

	return out
}

// DefaultFor returns the seed row for a single team.
func DefaultFor(t Team) (TeamBenchmark, bool) {
	for _, row := range defaults {
		if row.Team == t {
			return row, true
		}
	}

	return TeamBenchmark{}, false
}
