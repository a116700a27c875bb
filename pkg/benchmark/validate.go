package benchmark

import (
	"errors"
	"fmt"
)

// ErrUnknownTeam is returned when an update names a team outside the
// closed team set.
var ErrUnknownTeam = errors.New("unknown team")

// UpdatePayload is an inbound edit for one team's row. Fields are
// pointers so a missing field is distinguishable from a zero value;
// a JSON value of the wrong type fails at decode time, before
// validation.
type UpdatePayload struct {
	Team             Team     `json:"team"`
	TeamName         *string  `json:"team_name"`
	OverholdelsePct  *float64 `json:"overholdelse_pct"`
	PreviousMonthPct *float64 `json:"previous_month_pct"`
	BestMonthPct     *float64 `json:"best_month_pct"`
	IncomingCases    *int     `json:"incoming_cases"`
	ResolvedCases    *int     `json:"resolved_cases"`
	OpenBacklog      *int     `json:"open_backlog"`
	AvgHandleMinutes *float64 `json:"avg_handle_minutes"`
}

// Validate checks the payload's shape: the team must be one of the two
// known identities and every required field must be present. Range
// checks (percent bounds, negative counts) are intentionally not
// enforced at this layer.
func (p *UpdatePayload) Validate() error {
	if !ValidTeam(p.Team) {
		return fmt.Errorf("%w: %q", ErrUnknownTeam, p.Team)
	}

	required := []struct {
		name string
		ok   bool
	}{
		{"team_name", p.TeamName != nil},
		{"overholdelse_pct", p.OverholdelsePct != nil},
		{"incoming_cases", p.IncomingCases != nil},
		{"resolved_cases", p.ResolvedCases != nil},
		{"open_backlog", p.OpenBacklog != nil},
		{"avg_handle_minutes", p.AvgHandleMinutes != nil},
	}

	for _, field := range required {
		if !field.ok {
			return fmt.Errorf("missing field %q", field.name)
		}
	}

	return nil
}
