package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/turtacn/ipdash/internal/application/dashboard"
	"github.com/turtacn/ipdash/internal/application/view"
	"github.com/turtacn/ipdash/internal/domain/company"
	"github.com/turtacn/ipdash/internal/domain/query"
	"github.com/turtacn/ipdash/pkg/errors"
	"github.com/turtacn/ipdash/pkg/timing"
)

// session is one dashboard: a store fed by the fetch service and an engine
// deriving views from it.
type session struct {
	store   *view.Store
	engine  *view.Engine
	service *dashboard.Service
}

func newSession(c *CLIContext, q query.State, clock timing.Clock) *session {
	store := view.NewStore(view.WithStoreMetrics(c.Metrics))
	engine := view.NewEngine(store,
		view.WithQuery(q),
		view.WithMetrics(c.Metrics),
		view.WithLogger(c.Logger.Named("view")),
	)
	opts := []dashboard.Option{
		dashboard.WithMetrics(c.Metrics),
		dashboard.WithLogger(c.Logger),
		dashboard.WithRetryThrottle(c.Config.Dashboard.RetryThrottle),
	}
	if clock != nil {
		opts = append(opts, dashboard.WithClock(clock))
	}
	return &session{
		store:   store,
		engine:  engine,
		service: dashboard.NewService(c.Client, store, opts...),
	}
}

func (s *session) Close() {
	s.service.Close()
	s.engine.Close()
}

// loadView fetches both endpoints once and returns the derived view.  A fetch
// failure is returned as an error; the view still carries whatever loaded.
func loadView(cmd *cobra.Command, q query.State) (view.View, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return view.View{}, err
	}
	ctx, cancel := cliCtx.commandContext(cmd.Context())
	defer cancel()

	s := newSession(cliCtx, q, nil)
	defer s.Close()
	err = s.service.Refresh(ctx)
	return s.engine.View(), err
}

// defaultQuery is query.Default with the configured sort applied.
func defaultQuery(c *CLIContext) query.State {
	q := query.Default()
	field, err := company.ParseField(c.Config.Dashboard.SortField)
	if err != nil {
		return q
	}
	order, err := query.ParseSortOrder(c.Config.Dashboard.SortOrder)
	if err != nil {
		order = query.Ascending
	}
	q.SetSort(field, order)
	return q
}

// ─────────────────────────────────────────────────────────────────────────────
// Query flags
// ─────────────────────────────────────────────────────────────────────────────

// queryFlags are the search/sort/filter flags shared by table, charts and
// export.
type queryFlags struct {
	search       string
	sortField    string
	sortOrder    string
	minAllowance float64
	maxAllowance float64
	minPending   float64
	maxPending   float64
	ranges       []string
	high         bool
}

func (f *queryFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.search, "search", "s", "", "case-insensitive substring match on company name")
	fs.StringVar(&f.sortField, "sort", "", "sort field (name, pending, filed, disposed, allowanceRate, monthsToDisposition, averageOfficeActions, uuid)")
	fs.StringVar(&f.sortOrder, "order", "", "sort order (asc, desc)")
	fs.Float64Var(&f.minAllowance, "min-allowance", 0, "minimum allowance rate (fraction, or percent when > 1)")
	fs.Float64Var(&f.maxAllowance, "max-allowance", 1, "maximum allowance rate (fraction, or percent when > 1)")
	fs.Float64Var(&f.minPending, "min-pending", 0, "minimum pending applications")
	fs.Float64Var(&f.maxPending, "max-pending", math.Inf(1), "maximum pending applications")
	fs.StringSliceVar(&f.ranges, "range", nil, "range filter field=min:max; either bound may be empty (repeatable)")
	fs.BoolVar(&f.high, "high-performers", false, "only companies with allowance rate above 80%")
}

// build turns the flags into a query starting from base.  Range flags only
// apply when set explicitly.
func (f *queryFlags) build(fs *pflag.FlagSet, base query.State) (query.State, error) {
	q := base.Clone()
	q.SetSearchText(f.search)

	if f.sortField != "" || f.sortOrder != "" {
		field := q.SortField
		if f.sortField != "" {
			parsed, err := company.ParseField(f.sortField)
			if err != nil {
				return q, err
			}
			field = parsed
		}
		order := q.SortOrder
		if f.sortOrder != "" {
			parsed, err := query.ParseSortOrder(f.sortOrder)
			if err != nil {
				return q, err
			}
			order = parsed
		}
		q.SetSort(field, order)
	}

	if fs.Changed("min-allowance") || fs.Changed("max-allowance") {
		r := query.Range{Min: f.minAllowance, Max: math.Inf(1)}
		if fs.Changed("max-allowance") {
			r.Max = f.maxAllowance
		}
		r = normalizeRate(r)
		if !fs.Changed("max-allowance") {
			r.Max = f.maxAllowance
		}
		if err := q.SetRangeFilter(company.FieldAllowanceRate, r.Min, r.Max); err != nil {
			return q, err
		}
	}
	if fs.Changed("min-pending") || fs.Changed("max-pending") {
		if err := q.SetRangeFilter(company.FieldPending, f.minPending, f.maxPending); err != nil {
			return q, err
		}
	}
	for _, spec := range f.ranges {
		field, r, err := parseRangeSpec(spec)
		if err != nil {
			return q, err
		}
		if err := q.SetRangeFilter(field, r.Min, r.Max); err != nil {
			return q, err
		}
	}

	q.SetHighPerformersOnly(f.high)
	return q, nil
}

// normalizeRate reads an allowance-rate range as percentages when either
// finite bound is above 1, and as fractions otherwise.
func normalizeRate(r query.Range) query.Range {
	if !abovePercentCutoff(r.Min) && !abovePercentCutoff(r.Max) {
		return r
	}
	return query.Range{Min: r.Min / 100, Max: r.Max / 100}
}

func abovePercentCutoff(v float64) bool {
	return v > 1 && !math.IsInf(v, 1)
}

// parseRangeSpec parses "field=min:max" where either bound may be omitted.
func parseRangeSpec(spec string) (company.Field, query.Range, error) {
	name, bounds, ok := strings.Cut(spec, "=")
	if !ok {
		return "", query.Range{}, errors.InvalidParam("range must be field=min:max").WithDetail(spec)
	}
	field, err := query.ParseRangeName(name)
	if err != nil {
		return "", query.Range{}, err
	}
	lo, hi, ok := strings.Cut(bounds, ":")
	if !ok {
		return "", query.Range{}, errors.InvalidParam("range must be field=min:max").WithDetail(spec)
	}
	r := query.Full
	if lo = strings.TrimSpace(lo); lo != "" {
		if r.Min, err = strconv.ParseFloat(lo, 64); err != nil {
			return "", query.Range{}, errors.InvalidParam("invalid range minimum").WithDetail(lo)
		}
	}
	if hi = strings.TrimSpace(hi); hi != "" {
		if r.Max, err = strconv.ParseFloat(hi, 64); err != nil {
			return "", query.Range{}, errors.InvalidParam("invalid range maximum").WithDetail(hi)
		}
	}
	if field == company.FieldAllowanceRate {
		r = normalizeRate(r)
	}
	return field, r, nil
}

// queryFromCommand builds the query for cmd from its flags.
func queryFromCommand(cmd *cobra.Command, f *queryFlags) (query.State, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return query.State{}, err
	}
	q, err := f.build(cmd.Flags(), defaultQuery(cliCtx))
	if err != nil {
		return q, fmt.Errorf("invalid query: %w", err)
	}
	return q, nil
}
