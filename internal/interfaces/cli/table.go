package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/ipdash/internal/application/presenter"
	"github.com/turtacn/ipdash/internal/application/view"
	"github.com/turtacn/ipdash/internal/domain/company"
)

// tableResult is the JSON form of the table command.
type tableResult struct {
	Query   string            `json:"query"`
	Total   int               `json:"total"`
	Matched int               `json:"matched"`
	Offset  int               `json:"offset"`
	Rows    []company.Company `json:"rows"`
	Error   string            `json:"error,omitempty"`
}

// NewTableCmd creates the table command
func NewTableCmd() *cobra.Command {
	flags := &queryFlags{}
	var offset, limit int

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Show the filtered, sorted company table",
		Example: `  ipdash table --search apple --sort allowanceRate --order desc
  ipdash table --min-allowance 80 --range pending=:500 --high-performers`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			q, err := queryFromCommand(cmd, flags)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				limit = cliCtx.Config.Dashboard.PageSize
			}
			v, fetchErr := loadView(cmd, q)
			if fetchErr != nil && len(v.Rows) == 0 {
				return fetchErr
			}
			return renderTable(cmd, cliCtx, v, offset, limit)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().IntVar(&offset, "offset", 0, "skip this many rows")
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many rows; 0 shows all (default: dashboard.page_size)")
	return cmd
}

func renderTable(cmd *cobra.Command, cliCtx *CLIContext, v view.View, offset, limit int) error {
	page := presenter.Page(v.Rows, offset, limit)
	out := cmd.OutOrStdout()

	if cliCtx.OutputFormat == OutputJSON {
		res := tableResult{
			Query:   v.Query.String(),
			Total:   v.Total,
			Matched: len(v.Rows),
			Offset:  offset,
			Rows:    page,
		}
		if v.Error != nil {
			res.Error = *v.Error
		}
		if res.Rows == nil {
			res.Rows = []company.Company{}
		}
		return printJSON(out, res)
	}

	r := newRenderer(out, cliCtx.NoColor)
	if v.Error != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", *v.Error)
	}
	if len(v.Rows) == 0 {
		r.printf("No companies match the current filters.\n")
		return nil
	}

	headers, rows := r.companyRows(page)
	if cliCtx.OutputFormat == OutputText {
		r.plain(headers, rows)
		return nil
	}
	r.table(headers, rows)
	r.printf("Showing %d of %d companies (%d loaded) · %s\n", len(page), len(v.Rows), v.Total, v.Query.String())
	return nil
}
