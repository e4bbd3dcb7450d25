// Package company holds the entity fetched from the analytics API: one
// company's patent-prosecution record, the aggregate summary served alongside
// it, and the descriptors used to sort and present its attributes.
//
// Values are stored exactly as decoded.  Counts carry no cross-field
// invariant (disposed may exceed filed) and AllowanceRate is only
// semantically a fraction; consumers must tolerate any float, NaN included.
package company

import "math"

// Company is one row of GET /data.
type Company struct {
	UUID                 string  `json:"uuid"`
	Name                 string  `json:"name"`
	Pending              int     `json:"pending"`
	Filed                int     `json:"filed"`
	Disposed             int     `json:"disposed"`
	AllowanceRate        float64 `json:"allowanceRate"`
	MonthsToDisposition  float64 `json:"monthsToDisposition"`
	AverageOfficeActions float64 `json:"averageOfficeActions"`
}

// Stats is the body of GET /stats.  The averages arrive pre-formatted and are
// never reconciled against the company list.
type Stats struct {
	Companies                  int     `json:"companies"`
	AverageAllowanceRate       string  `json:"averageAllowanceRate"`
	AveragePending             float64 `json:"averagePending"`
	AverageMonthsToDisposition string  `json:"averageMonthsToDisposition"`
}

// HighPerformerThreshold is the allowance rate above which a company counts as
// a high performer.
const HighPerformerThreshold = 0.8

// IsHighPerformer reports whether c's allowance rate exceeds
// HighPerformerThreshold.
func (c Company) IsHighPerformer() bool {
	return c.AllowanceRate > HighPerformerThreshold
}

// Equal reports whether c and o hold the same values.  NaN equals NaN.
func (c Company) Equal(o Company) bool {
	return c.UUID == o.UUID && c.Name == o.Name &&
		c.Pending == o.Pending && c.Filed == o.Filed && c.Disposed == o.Disposed &&
		SameFloat(c.AllowanceRate, o.AllowanceRate) &&
		SameFloat(c.MonthsToDisposition, o.MonthsToDisposition) &&
		SameFloat(c.AverageOfficeActions, o.AverageOfficeActions)
}

// Equal reports whether s and o hold the same values.  NaN equals NaN.
func (s Stats) Equal(o Stats) bool {
	return s.Companies == o.Companies &&
		s.AverageAllowanceRate == o.AverageAllowanceRate &&
		SameFloat(s.AveragePending, o.AveragePending) &&
		s.AverageMonthsToDisposition == o.AverageMonthsToDisposition
}

// SameFloat is float equality with NaN equal to itself.
func SameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}
