package presenter

import (
	"fmt"
	"strings"

	"github.com/turtacn/ipdash/internal/domain/company"
)

// ShortName is the part of name before the first comma.
func ShortName(name string) string {
	short, _, _ := strings.Cut(name, ",")
	return short
}

type AllowancePoint struct {
	Name string `json:"name"`
	// Rate is the allowance rate in percent.
	Rate float64 `json:"allowanceRate"`
}

type ApplicationsPoint struct {
	Name     string `json:"name"`
	Pending  int    `json:"pending"`
	Filed    int    `json:"filed"`
	Disposed int    `json:"disposed"`
}

type DispositionPoint struct {
	Name          string  `json:"name"`
	Months        float64 `json:"monthsToDisposition"`
	OfficeActions float64 `json:"averageOfficeActions"`
}

// DistributionSlice is one company's share of all pending applications.
type DistributionSlice struct {
	Name       string `json:"name"`
	Value      int    `json:"value"`
	Percentage string `json:"percentage"`
}

// ChartSet holds every chart series for one company list, in list order.
type ChartSet struct {
	Allowance    []AllowancePoint
	Applications []ApplicationsPoint
	Disposition  []DispositionPoint
	Distribution []DistributionSlice
}

// Charts builds the chart series for companies.
func Charts(companies []company.Company) ChartSet {
	set := ChartSet{
		Allowance:    make([]AllowancePoint, 0, len(companies)),
		Applications: make([]ApplicationsPoint, 0, len(companies)),
		Disposition:  make([]DispositionPoint, 0, len(companies)),
		Distribution: make([]DistributionSlice, 0, len(companies)),
	}
	totalPending := 0
	for _, c := range companies {
		totalPending += c.Pending
	}
	for _, c := range companies {
		name := ShortName(c.Name)
		set.Allowance = append(set.Allowance, AllowancePoint{Name: name, Rate: c.AllowanceRate * 100})
		set.Applications = append(set.Applications, ApplicationsPoint{
			Name: name, Pending: c.Pending, Filed: c.Filed, Disposed: c.Disposed,
		})
		set.Disposition = append(set.Disposition, DispositionPoint{
			Name: name, Months: c.MonthsToDisposition, OfficeActions: c.AverageOfficeActions,
		})
		share := 0.0
		if totalPending != 0 {
			share = float64(c.Pending) / float64(totalPending) * 100
		}
		set.Distribution = append(set.Distribution, DistributionSlice{
			Name: name, Value: c.Pending, Percentage: fmt.Sprintf("%.1f", share),
		})
	}
	return set
}
