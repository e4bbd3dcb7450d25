package company

// ColumnKind selects how a column is rendered.  Rendering itself lives in the
// presenter; the domain only tags the column.
type ColumnKind int

const (
	ColumnText ColumnKind = iota
	ColumnNumber
	ColumnPercentage
	ColumnBadge
	ColumnMonths
	ColumnDecimal
)

var columnKindNames = map[ColumnKind]string{
	ColumnText:       "text",
	ColumnNumber:     "number",
	ColumnPercentage: "percentage",
	ColumnBadge:      "badge",
	ColumnMonths:     "months",
	ColumnDecimal:    "decimal",
}

func (k ColumnKind) String() string {
	if s, ok := columnKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Column describes one table column.
type Column struct {
	Key      Field
	Kind     ColumnKind
	Sortable bool
	Label    string
}

// DefaultColumns returns the dashboard table layout.  The slice is fresh on
// every call.
func DefaultColumns() []Column {
	return []Column{
		{Key: FieldName, Kind: ColumnText, Sortable: true, Label: "Company"},
		{Key: FieldPending, Kind: ColumnNumber, Sortable: true, Label: "Pending"},
		{Key: FieldFiled, Kind: ColumnNumber, Sortable: true, Label: "Filed"},
		{Key: FieldDisposed, Kind: ColumnNumber, Sortable: true, Label: "Disposed"},
		{Key: FieldAllowanceRate, Kind: ColumnBadge, Sortable: true, Label: "Allowance Rate"},
		{Key: FieldMonthsToDisposition, Kind: ColumnMonths, Sortable: true, Label: "Disposition Time"},
		{Key: FieldAverageOfficeActions, Kind: ColumnDecimal, Sortable: true, Label: "Office Actions"},
	}
}

// ColumnFor returns the default column for f.
func ColumnFor(f Field) (Column, bool) {
	for _, c := range DefaultColumns() {
		if c.Key == f {
			return c, true
		}
	}
	return Column{}, false
}
