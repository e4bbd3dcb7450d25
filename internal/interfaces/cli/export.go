package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/turtacn/ipdash/internal/application/presenter"
	"github.com/turtacn/ipdash/internal/domain/company"
	"github.com/turtacn/ipdash/pkg/errors"
)

// Export formats.
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)

const (
	sheetCompanies = "Companies"
	sheetStats     = "Stats"
)

// exportHeaders is the header row of every export.
var exportHeaders = []string{
	"UUID", "Company", "Pending", "Filed", "Disposed",
	"Allowance Rate", "Months to Disposition", "Avg Office Actions",
}

func exportRecord(c company.Company) []interface{} {
	return []interface{}{
		c.UUID, c.Name, c.Pending, c.Filed, c.Disposed,
		c.AllowanceRate, c.MonthsToDisposition, c.AverageOfficeActions,
	}
}

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	flags := &queryFlags{}
	var format, file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered, sorted company table to CSV or Excel",
		Example: `  ipdash export --file companies.xlsx --high-performers
  ipdash export --format csv --sort pending --order desc > pending.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := exportFormat(format, file)
			if err != nil {
				return err
			}
			q, err := queryFromCommand(cmd, flags)
			if err != nil {
				return err
			}
			v, fetchErr := loadView(cmd, q)
			if fetchErr != nil && len(v.Rows) == 0 {
				return fetchErr
			}
			if v.Error != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", *v.Error)
			}

			out := cmd.OutOrStdout()
			if file != "" {
				f, err := os.Create(file)
				if err != nil {
					return errors.Wrap(err, errors.ErrCodeExportFailed, "create export file")
				}
				defer f.Close()
				out = f
			}

			switch kind {
			case ExportXLSX:
				err = writeXLSX(out, v.Rows, presenter.StatCards(v.Stats))
			default:
				err = writeCSV(out, v.Rows)
			}
			if err != nil {
				return err
			}
			if file != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d companies to %s\n", len(v.Rows), file)
			}
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&format, "format", "", "export format (csv, xlsx); inferred from --file when empty")
	cmd.Flags().StringVarP(&file, "file", "f", "", "output file (default: stdout)")
	return cmd
}

// exportFormat resolves the format from the flag, then the file extension,
// then csv.
func exportFormat(format, file string) (string, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(file)), ".")
		if format == "" {
			return ExportCSV, nil
		}
	}
	switch strings.ToLower(format) {
	case ExportCSV:
		return ExportCSV, nil
	case ExportXLSX, "excel":
		return ExportXLSX, nil
	default:
		return "", errors.New(errors.ErrCodeUnsupportedFormat, "unsupported export format").WithDetail(format)
	}
}

func writeCSV(w io.Writer, rows []company.Company) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeaders); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "write csv header")
	}
	for _, c := range rows {
		if err := cw.Write([]string{
			c.UUID, c.Name,
			strconv.Itoa(c.Pending), strconv.Itoa(c.Filed), strconv.Itoa(c.Disposed),
			strconv.FormatFloat(c.AllowanceRate, 'f', -1, 64),
			strconv.FormatFloat(c.MonthsToDisposition, 'f', -1, 64),
			strconv.FormatFloat(c.AverageOfficeActions, 'f', -1, 64),
		}); err != nil {
			return errors.Wrap(err, errors.ErrCodeExportFailed, "write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "flush csv")
	}
	return nil
}

// writeXLSX writes a workbook with the company rows and, when loaded, a
// second sheet with the summary cards.
func writeXLSX(w io.Writer, rows []company.Company, cards []presenter.StatCard) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetCompanies); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "name sheet")
	}
	header := make([]interface{}, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := setRow(f, sheetCompanies, 1, header); err != nil {
		return err
	}
	for i, c := range rows {
		if err := setRow(f, sheetCompanies, i+2, exportRecord(c)); err != nil {
			return err
		}
	}
	if err := f.SetPanes(sheetCompanies, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "freeze header")
	}

	if len(cards) > 0 {
		if _, err := f.NewSheet(sheetStats); err != nil {
			return errors.Wrap(err, errors.ErrCodeExportFailed, "add stats sheet")
		}
		if err := setRow(f, sheetStats, 1, []interface{}{"Metric", "Value", "Description"}); err != nil {
			return err
		}
		for i, c := range cards {
			if err := setRow(f, sheetStats, i+2, []interface{}{c.Title, c.Value, c.Description}); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "write workbook")
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "cell name")
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "write row").WithDetail(sheet)
	}
	return nil
}
