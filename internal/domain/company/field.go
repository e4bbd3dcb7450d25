package company

import (
	"strings"

	"github.com/turtacn/ipdash/pkg/errors"
)

// Field names a sortable Company attribute.  Its string form is the JSON key.
type Field string

const (
	FieldUUID                 Field = "uuid"
	FieldName                 Field = "name"
	FieldPending              Field = "pending"
	FieldFiled                Field = "filed"
	FieldDisposed             Field = "disposed"
	FieldAllowanceRate        Field = "allowanceRate"
	FieldMonthsToDisposition  Field = "monthsToDisposition"
	FieldAverageOfficeActions Field = "averageOfficeActions"
)

// Fields lists every sortable field in table order.
var Fields = []Field{
	FieldName,
	FieldPending,
	FieldFiled,
	FieldDisposed,
	FieldAllowanceRate,
	FieldMonthsToDisposition,
	FieldAverageOfficeActions,
	FieldUUID,
}

// aliases maps alternate spellings accepted from users to fields.
var aliases = map[string]Field{
	"prosecutiontime":        FieldMonthsToDisposition,
	"dispositiontime":        FieldMonthsToDisposition,
	"months":                 FieldMonthsToDisposition,
	"officeactions":          FieldAverageOfficeActions,
	"allowance":              FieldAllowanceRate,
	"company":                FieldName,
	"id":                     FieldUUID,
	"months_to_disposition":  FieldMonthsToDisposition,
	"allowance_rate":         FieldAllowanceRate,
	"average_office_actions": FieldAverageOfficeActions,
}

// ParseField resolves s (case-insensitive, JSON key or alias) to a Field.
func ParseField(s string) (Field, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, f := range Fields {
		if strings.ToLower(string(f)) == key {
			return f, nil
		}
	}
	if f, ok := aliases[key]; ok {
		return f, nil
	}
	return "", errors.New(errors.ErrCodeUnknownField, "unknown field").WithDetail(s)
}

func (f Field) String() string { return string(f) }

// IsNumeric reports whether the field holds a number.
func (f Field) IsNumeric() bool {
	switch f {
	case FieldPending, FieldFiled, FieldDisposed, FieldAllowanceRate,
		FieldMonthsToDisposition, FieldAverageOfficeActions:
		return true
	}
	return false
}

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindText ValueKind = iota
	KindNumber
)

// Value is a Company attribute read through a Field.
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
}

// Value reads f from c.  An unknown field yields the zero Value, which
// compares equal to itself so that sorting by it keeps input order.
func (f Field) Value(c Company) Value {
	switch f {
	case FieldUUID:
		return Value{Kind: KindText, Text: c.UUID}
	case FieldName:
		return Value{Kind: KindText, Text: c.Name}
	case FieldPending:
		return Value{Kind: KindNumber, Number: float64(c.Pending)}
	case FieldFiled:
		return Value{Kind: KindNumber, Number: float64(c.Filed)}
	case FieldDisposed:
		return Value{Kind: KindNumber, Number: float64(c.Disposed)}
	case FieldAllowanceRate:
		return Value{Kind: KindNumber, Number: c.AllowanceRate}
	case FieldMonthsToDisposition:
		return Value{Kind: KindNumber, Number: c.MonthsToDisposition}
	case FieldAverageOfficeActions:
		return Value{Kind: KindNumber, Number: c.AverageOfficeActions}
	default:
		return Value{}
	}
}
