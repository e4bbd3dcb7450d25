package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/turtacn/ipdash/internal/application/presenter"
	"github.com/turtacn/ipdash/internal/domain/company"
)

// renderer writes tables and badges to out, colouring badges only when out
// is a terminal and colour was not disabled.
type renderer struct {
	out    io.Writer
	colors map[presenter.Variant]*color.Color
}

func newRenderer(out io.Writer, noColor bool) *renderer {
	r := &renderer{
		out: out,
		colors: map[presenter.Variant]*color.Color{
			presenter.VariantSuccess:   color.New(color.FgGreen),
			presenter.VariantDefault:   color.New(color.FgBlue),
			presenter.VariantError:     color.New(color.FgRed),
			presenter.VariantWarning:   color.New(color.FgYellow),
			presenter.VariantSecondary: color.New(color.FgCyan),
		},
	}
	enabled := !noColor && isTerminal(out)
	for _, c := range r.colors {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// paint renders a cell, coloured by its badge variant.
func (r *renderer) paint(cell presenter.CellValue) string {
	if c, ok := r.colors[cell.Variant]; ok {
		return c.Sprint(cell.Text)
	}
	return cell.Text
}

// companyRows renders companies with the default table columns.
func (r *renderer) companyRows(companies []company.Company) (headers []string, rows [][]string) {
	cols := company.DefaultColumns()
	rows = make([][]string, len(companies))
	for i, c := range companies {
		cells := presenter.Row(cols, c)
		row := make([]string, len(cells))
		for j, cell := range cells {
			row[j] = r.paint(cell)
		}
		rows[i] = row
	}
	return presenter.Headers(cols), rows
}

func (r *renderer) table(headers []string, rows [][]string) {
	table := tablewriter.NewWriter(r.out)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.AppendBulk(rows)
	table.Render()
}

// plain writes rows as tab-separated lines for the text output format.
func (r *renderer) plain(headers []string, rows [][]string) {
	writeTSV(r.out, headers)
	for _, row := range rows {
		writeTSV(r.out, row)
	}
}

func writeTSV(w io.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, f)
	}
	fmt.Fprintln(w)
}

func (r *renderer) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}
