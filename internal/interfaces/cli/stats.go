package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/ipdash/internal/application/presenter"
	"github.com/turtacn/ipdash/internal/application/view"
)

type statCardJSON struct {
	Title       string `json:"title"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the aggregate summary cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			v, fetchErr := loadView(cmd, defaultQuery(cliCtx))
			if fetchErr != nil && v.Stats == nil {
				return fetchErr
			}
			return renderStats(cmd, cliCtx, v)
		},
	}
}

func renderStats(cmd *cobra.Command, cliCtx *CLIContext, v view.View) error {
	cards := presenter.StatCards(v.Stats)
	out := cmd.OutOrStdout()

	if cliCtx.OutputFormat == OutputJSON {
		res := make([]statCardJSON, 0, len(cards))
		for _, c := range cards {
			res = append(res, statCardJSON{Title: c.Title, Value: c.Value, Description: c.Description})
		}
		return printJSON(out, res)
	}

	if v.Error != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", *v.Error)
	}
	r := newRenderer(out, cliCtx.NoColor)
	if cards == nil {
		r.printf("%s\n", presenter.NoStatsMessage)
		return nil
	}
	rows := make([][]string, len(cards))
	for i, c := range cards {
		rows[i] = []string{c.Title, c.Value, c.Description}
	}
	headers := []string{"Metric", "Value", "Description"}
	if cliCtx.OutputFormat == OutputText {
		r.plain(headers, rows)
		return nil
	}
	r.table(headers, rows)
	return nil
}
