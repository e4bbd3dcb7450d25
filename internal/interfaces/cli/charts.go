package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/ipdash/internal/application/presenter"
	"github.com/turtacn/ipdash/pkg/errors"
)

// Chart names accepted by --chart.
const (
	ChartAllowance    = "allowance"
	ChartApplications = "applications"
	ChartDisposition  = "disposition"
	ChartDistribution = "distribution"
)

var allCharts = []string{ChartAllowance, ChartApplications, ChartDisposition, ChartDistribution}

// NewChartsCmd creates the charts command
func NewChartsCmd() *cobra.Command {
	flags := &queryFlags{}
	var charts []string

	cmd := &cobra.Command{
		Use:   "charts",
		Short: "Show the chart series for the filtered companies",
		Example: `  ipdash charts --chart allowance --sort allowanceRate --order desc
  ipdash charts -o json --high-performers`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			for _, name := range charts {
				if !isChart(name) {
					return errors.InvalidParam("unknown chart").WithDetail(name)
				}
			}
			q, err := queryFromCommand(cmd, flags)
			if err != nil {
				return err
			}
			v, fetchErr := loadView(cmd, q)
			if fetchErr != nil && len(v.Rows) == 0 {
				return fetchErr
			}
			set := presenter.Charts(v.Rows)

			if cliCtx.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), chartsJSON(set, charts))
			}
			if v.Error != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", *v.Error)
			}
			r := newRenderer(cmd.OutOrStdout(), cliCtx.NoColor)
			for _, name := range charts {
				headers, rows := chartRows(set, name)
				if cliCtx.OutputFormat == OutputText {
					r.printf("# %s\n", name)
					r.plain(headers, rows)
					continue
				}
				r.printf("%s\n", chartTitle(name))
				r.table(headers, rows)
			}
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringSliceVar(&charts, "chart", allCharts, "charts to show (allowance, applications, disposition, distribution)")
	return cmd
}

func isChart(name string) bool {
	for _, c := range allCharts {
		if c == name {
			return true
		}
	}
	return false
}

func chartTitle(name string) string {
	switch name {
	case ChartAllowance:
		return "Allowance Rate by Company"
	case ChartApplications:
		return "Application Volume"
	case ChartDisposition:
		return "Disposition Time vs Office Actions"
	default:
		return "Pending Applications Distribution"
	}
}

func chartRows(set presenter.ChartSet, name string) ([]string, [][]string) {
	switch name {
	case ChartAllowance:
		rows := make([][]string, len(set.Allowance))
		for i, p := range set.Allowance {
			rows[i] = []string{p.Name, strconv.FormatFloat(p.Rate, 'f', 1, 64)}
		}
		return []string{"Company", "Allowance Rate (%)"}, rows
	case ChartApplications:
		rows := make([][]string, len(set.Applications))
		for i, p := range set.Applications {
			rows[i] = []string{p.Name, presenter.FormatInt(p.Pending), presenter.FormatInt(p.Filed), presenter.FormatInt(p.Disposed)}
		}
		return []string{"Company", "Pending", "Filed", "Disposed"}, rows
	case ChartDisposition:
		rows := make([][]string, len(set.Disposition))
		for i, p := range set.Disposition {
			rows[i] = []string{p.Name, presenter.FormatMonths(p.Months), presenter.FormatDecimal(p.OfficeActions)}
		}
		return []string{"Company", "Months to Disposition", "Avg Office Actions"}, rows
	default:
		rows := make([][]string, len(set.Distribution))
		for i, p := range set.Distribution {
			rows[i] = []string{p.Name, presenter.FormatInt(p.Value), p.Percentage + "%"}
		}
		return []string{"Company", "Pending", "Share"}, rows
	}
}

// chartsJSON keeps only the requested series.
func chartsJSON(set presenter.ChartSet, charts []string) map[string]interface{} {
	out := make(map[string]interface{}, len(charts))
	for _, name := range charts {
		switch name {
		case ChartAllowance:
			out[name] = set.Allowance
		case ChartApplications:
			out[name] = set.Applications
		case ChartDisposition:
			out[name] = set.Disposition
		case ChartDistribution:
			out[name] = set.Distribution
		}
	}
	return out
}
