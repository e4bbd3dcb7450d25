package view

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ipdash/internal/domain/company"
	"github.com/turtacn/ipdash/internal/domain/query"
)

func sampleCompanies() []company.Company {
	return []company.Company{
		{UUID: "1", Name: "Google LLC", Pending: 200, Filed: 500, Disposed: 300, AllowanceRate: 0.8, MonthsToDisposition: 24, AverageOfficeActions: 2.1},
		{UUID: "2", Name: "Apple, Inc.", Pending: 100, Filed: 400, Disposed: 350, AllowanceRate: 0.9, MonthsToDisposition: 20, AverageOfficeActions: 1.8},
		{UUID: "3", Name: "apple hospitality", Pending: 100, Filed: 10, Disposed: 12, AllowanceRate: 0.5, MonthsToDisposition: 30, AverageOfficeActions: 2.9},
		{UUID: "4", Name: "Zeta Corp", Pending: 50, Filed: 60, Disposed: 70, AllowanceRate: 0.65, MonthsToDisposition: 28, AverageOfficeActions: 2.4},
	}
}

func names(cs []company.Company) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func ids(cs []company.Company) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.UUID
	}
	return out
}

func randomCompanies(r *rand.Rand, n int) []company.Company {
	pool := []string{"Acme", "acme", "Beta", "Gamma", "delta", "Apple", "APPLE"}
	out := make([]company.Company, n)
	for i := range out {
		out[i] = company.Company{
			UUID:                 fmt.Sprint(i),
			Name:                 pool[r.Intn(len(pool))],
			Pending:              r.Intn(5),
			Filed:                r.Intn(5),
			Disposed:             r.Intn(5),
			AllowanceRate:        float64(r.Intn(4)) / 4,
			MonthsToDisposition:  float64(r.Intn(3)),
			AverageOfficeActions: float64(r.Intn(3)),
		}
	}
	return out
}

func TestDerive_SearchScenario(t *testing.T) {
	e := []company.Company{
		{Name: "Google LLC", Pending: 200, AllowanceRate: 0.8},
		{Name: "Apple, Inc.", Pending: 100, AllowanceRate: 0.9},
	}
	q := query.Default()
	q.SetSearchText("apple")

	got := Derive(e, q)
	require.Len(t, got, 1)
	assert.Equal(t, "Apple, Inc.", got[0].Name)
}

func TestDerive_InvertedRangeScenario(t *testing.T) {
	q := query.Default()
	require.NoError(t, q.SetRangeFilter(company.FieldPending, 150, 50))

	got := Derive(sampleCompanies(), q)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDerive_EmptyInput(t *testing.T) {
	q := query.Default()
	q.SetSearchText("anything")
	got := Derive(nil, q)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDerive_NoMatches(t *testing.T) {
	q := query.Default()
	q.SetSearchText("microsoft")
	assert.Empty(t, Derive(sampleCompanies(), q))
}

func TestDerive_EmptySearchIsNoop(t *testing.T) {
	q := query.Default()
	assert.Len(t, Derive(sampleCompanies(), q), 4)
}

func TestDerive_DefaultSortIsCaseInsensitiveName(t *testing.T) {
	// "apple " sorts before "apple," byte-wise.
	got := Derive(sampleCompanies(), query.Default())
	assert.Equal(t, []string{"apple hospitality", "Apple, Inc.", "Google LLC", "Zeta Corp"}, names(got))
}

func TestDerive_NumericSortDescending(t *testing.T) {
	q := query.Default()
	q.SetSort(company.FieldAllowanceRate, query.Descending)
	assert.Equal(t, []string{"2", "1", "4", "3"}, ids(Derive(sampleCompanies(), q)))
}

func TestDerive_StableTiesBothDirections(t *testing.T) {
	// "2" and "3" share pending=100.
	q := query.Default()
	q.SetSort(company.FieldPending, query.Ascending)
	assert.Equal(t, []string{"4", "2", "3", "1"}, ids(Derive(sampleCompanies(), q)))

	q.SetSort(company.FieldPending, query.Descending)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(Derive(sampleCompanies(), q)))
}

func TestDerive_RangeInclusive(t *testing.T) {
	q := query.Default()
	require.NoError(t, q.SetRangeFilter(company.FieldPending, 100, 200))
	assert.ElementsMatch(t, []string{"1", "2", "3"}, ids(Derive(sampleCompanies(), q)))
}

func TestDerive_MultipleRangesAndSearch(t *testing.T) {
	q := query.Default()
	q.SetSearchText("APPLE")
	require.NoError(t, q.SetRangeFilter(company.FieldAllowanceRate, 0.6, 1))
	require.NoError(t, q.SetRangeFilter(company.FieldPending, 0, 150))
	assert.Equal(t, []string{"2"}, ids(Derive(sampleCompanies(), q)))
}

func TestDerive_HighPerformersOnly(t *testing.T) {
	q := query.Default()
	q.SetHighPerformersOnly(true)
	// 0.8 exactly is not above the threshold.
	assert.Equal(t, []string{"2"}, ids(Derive(sampleCompanies(), q)))
}

func TestDerive_DoesNotMutateInput(t *testing.T) {
	in := sampleCompanies()
	before := append([]company.Company(nil), in...)
	q := query.Default()
	q.SetSort(company.FieldPending, query.Descending)

	out := Derive(in, q)
	assert.Equal(t, before, in)

	out[0].Name = "changed"
	assert.Equal(t, before, in)
}

func TestDerive_MalformedValuesDoNotPanic(t *testing.T) {
	in := []company.Company{
		{UUID: "a", Name: "", AllowanceRate: math.NaN(), Filed: 1, Disposed: 99},
		{UUID: "b", Name: "x", AllowanceRate: -3, Pending: -1},
		{UUID: "c", Name: "y", AllowanceRate: math.Inf(1)},
	}
	q := query.Default()
	q.SetSort(company.FieldAllowanceRate, query.Descending)
	assert.NotPanics(t, func() { Derive(in, q) })

	require.NoError(t, q.SetRangeFilter(company.FieldAllowanceRate, 0, 1))
	assert.Empty(t, Derive(in, q))
}

func TestDerive_NaNSortsLast(t *testing.T) {
	in := []company.Company{
		{UUID: "3", AllowanceRate: 0.3},
		{UUID: "nan", AllowanceRate: math.NaN()},
		{UUID: "1", AllowanceRate: 0.1},
		{UUID: "2", AllowanceRate: 0.2},
	}
	q := query.Default()

	q.SetSort(company.FieldAllowanceRate, query.Ascending)
	assert.Equal(t, []string{"1", "2", "3", "nan"}, ids(Derive(in, q)))

	q.SetSort(company.FieldAllowanceRate, query.Descending)
	assert.Equal(t, []string{"3", "2", "1", "nan"}, ids(Derive(in, q)))
}

func TestDerive_UnknownSortFieldKeepsOrder(t *testing.T) {
	q := query.Default()
	q.SortField = company.Field("bogus")
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(Derive(sampleCompanies(), q)))
}

// Property checks over random inputs.

func TestDerive_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		e := randomCompanies(r, r.Intn(30))
		field := company.Fields[r.Intn(len(company.Fields))]
		order := query.Ascending
		if r.Intn(2) == 0 {
			order = query.Descending
		}
		q := query.Default()
		q.SetSort(field, order)
		if r.Intn(2) == 0 {
			q.SetSearchText([]string{"a", "ac", "PP", "z"}[r.Intn(4)])
		}

		out := Derive(e, q)

		// Filter monotonicity.
		assert.LessOrEqual(t, len(out), len(e))

		// Idempotence under the same query.
		assert.Equal(t, out, Derive(out, q))

		// Search case-insensitivity.
		upper, lower := q, q
		upper.SearchText = "APPLE"
		lower.SearchText = "apple"
		assert.Equal(t, Derive(e, lower), Derive(e, upper))

		// Stability: equal keys keep input order (UUIDs are ascending input indices).
		cmp := comparator(field, order)
		for i := 1; i < len(out); i++ {
			if cmp(out[i-1], out[i]) == 0 {
				var a, b int
				fmt.Sscan(out[i-1].UUID, &a)
				fmt.Sscan(out[i].UUID, &b)
				assert.Less(t, a, b, "tie order broken for %s %s", field, order)
			}
		}
	}
}

func TestDerive_IdempotentUnderDefaultQuery(t *testing.T) {
	q := query.Default()
	once := Derive(sampleCompanies(), q)
	assert.Equal(t, once, Derive(once, q))
}
