package presenter

import (
	"github.com/turtacn/ipdash/internal/domain/company"
)

// NoStatsMessage is shown in place of the cards before stats are loaded.
const NoStatsMessage = "No stats available"

// StatCard is one summary tile.
type StatCard struct {
	Title       string
	Value       string
	Description string
}

// StatCards returns the four summary cards, or nil when stats is nil.  The
// server-formatted averages are shown verbatim.
func StatCards(stats *company.Stats) []StatCard {
	if stats == nil {
		return nil
	}
	return []StatCard{
		{Title: "Total Companies", Value: FormatInt(stats.Companies), Description: "Active organizations"},
		{Title: "Avg Allowance Rate", Value: stats.AverageAllowanceRate, Description: "Success rate"},
		{Title: "Avg Pending", Value: FormatNumber(stats.AveragePending), Description: "Applications in queue"},
		{Title: "Avg Disposition Time", Value: stats.AverageMonthsToDisposition + " months", Description: "Processing duration"},
	}
}
