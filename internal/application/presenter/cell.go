package presenter

import (
	"github.com/turtacn/ipdash/internal/domain/company"
)

// Variant is the badge style of a rendered cell.
type Variant string

const (
	VariantNone      Variant = ""
	VariantSuccess   Variant = "success"
	VariantDefault   Variant = "default"
	VariantError     Variant = "error"
	VariantWarning   Variant = "warning"
	VariantSecondary Variant = "secondary"
)

// Allowance-rate thresholds for badge variants.
const (
	SuccessThreshold = company.HighPerformerThreshold
	DefaultThreshold = 0.6
)

// BadgeVariant classifies an allowance rate: above 0.8 is success, above 0.6
// default, anything else (NaN included) error.
func BadgeVariant(rate float64) Variant {
	switch {
	case rate > SuccessThreshold:
		return VariantSuccess
	case rate > DefaultThreshold:
		return VariantDefault
	default:
		return VariantError
	}
}

// CellValue is one rendered table cell.
type CellValue struct {
	Text    string
	Variant Variant
}

// Cell renders c's value for col.
func Cell(col company.Column, c company.Company) CellValue {
	v := col.Key.Value(c)
	switch col.Kind {
	case company.ColumnText:
		return CellValue{Text: v.Text}
	case company.ColumnNumber:
		return CellValue{Text: FormatNumber(v.Number), Variant: countVariant(col.Key)}
	case company.ColumnPercentage:
		return CellValue{Text: FormatPercentage(v.Number, 1)}
	case company.ColumnBadge:
		return CellValue{Text: FormatPercentage(v.Number, 1), Variant: BadgeVariant(v.Number)}
	case company.ColumnMonths:
		return CellValue{Text: FormatMonths(v.Number)}
	case company.ColumnDecimal:
		return CellValue{Text: FormatDecimal(v.Number), Variant: VariantSecondary}
	}
	if v.Kind == company.KindText {
		return CellValue{Text: v.Text}
	}
	return CellValue{Text: FormatNumber(v.Number)}
}

func countVariant(f company.Field) Variant {
	switch f {
	case company.FieldPending:
		return VariantWarning
	case company.FieldDisposed:
		return VariantSuccess
	}
	return VariantNone
}

// Row renders c across cols.
func Row(cols []company.Column, c company.Company) []CellValue {
	out := make([]CellValue, len(cols))
	for i, col := range cols {
		out[i] = Cell(col, c)
	}
	return out
}

// Headers returns the column labels.
func Headers(cols []company.Column) []string {
	out := make([]string, len(cols))
	for i, col := range cols {
		out[i] = col.Label
	}
	return out
}
