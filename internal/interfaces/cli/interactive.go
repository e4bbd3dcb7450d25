package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/ipdash/internal/application/presenter"
	"github.com/turtacn/ipdash/internal/application/view"
	"github.com/turtacn/ipdash/internal/domain/company"
	"github.com/turtacn/ipdash/internal/domain/query"
	"github.com/turtacn/ipdash/pkg/errors"
	"github.com/turtacn/ipdash/pkg/timing"
)

const interactiveHelp = `Commands:
  search <text>              filter by company name (debounced)
  sort <field>               sort by field; repeating toggles the order
  order asc|desc             set the sort order
  range <field> <min> <max>  set a range filter (allowance, pending); "-" keeps a bound open
  clear <field>              clear a range filter
  high on|off                only companies with allowance rate above 80%
  reset                      restore the default query
  show [scrollTop]           draw the rows visible at scrollTop pixels
  stats                      show the summary cards
  select <uuid>              show one company
  status                     show loading and error state
  retry                      reload from the API (at most once per second)
  quit                       leave
`

// interactiveOptions tune one interactive session.
type interactiveOptions struct {
	Clock     timing.Clock
	Debounce  time.Duration
	RowHeight int
	Viewport  int
	NoColor   bool
	Prompt    bool
}

// NewInteractiveCmd creates the interactive command
func NewInteractiveCmd() *cobra.Command {
	flags := &queryFlags{}

	cmd := &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"repl"},
		Short:   "Explore the dashboard from a line-driven prompt",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			q, err := queryFromCommand(cmd, flags)
			if err != nil {
				return err
			}
			sess := newSession(cliCtx, q, nil)
			defer sess.Close()

			in := cmd.InOrStdin()
			f, isFile := in.(*os.File)
			d := cliCtx.Config.Dashboard
			return runInteractive(cmd.Context(), in, cmd.OutOrStdout(), sess, interactiveOptions{
				Debounce:  d.SearchDebounce,
				RowHeight: d.RowHeight,
				Viewport:  d.ViewportHeight,
				NoColor:   cliCtx.NoColor,
				Prompt:    isFile && isTerminal(f),
			})
		},
	}

	flags.register(cmd.Flags())
	return cmd
}

// syncWriter serialises writes from the prompt loop and view subscribers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// shell is the state of one interactive session.
type shell struct {
	sess      *session
	out       io.Writer
	r         *renderer
	search    *timing.Debouncer[string]
	opts      interactiveOptions
	scrollTop float64
}

// runInteractive reads commands from in until quit or EOF.  The first load
// starts in the background; its progress is reported as views arrive.
func runInteractive(ctx context.Context, in io.Reader, out io.Writer, sess *session, opts interactiveOptions) error {
	w := &syncWriter{w: out}
	sh := newShell(sess, w, opts)
	defer sh.search.Stop()

	unsubscribe := sess.engine.Subscribe(newStatusReporter(w).report)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
		sess.engine.Sync()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = sess.service.Refresh(ctx)
	}()

	scanner := bufio.NewScanner(in)
	for {
		if opts.Prompt {
			fmt.Fprint(w, "ipdash> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		quit, err := sh.exec(ctx, line)
		if err != nil {
			fmt.Fprintf(w, "error: %s\n", errors.Message(err))
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

func newShell(sess *session, out io.Writer, opts interactiveOptions) *shell {
	if opts.Clock == nil {
		opts.Clock = timing.RealClock()
	}
	return &shell{
		sess:   sess,
		out:    out,
		r:      newRenderer(out, opts.NoColor),
		search: timing.NewDebouncer(opts.Debounce, sess.engine.SetSearchText, timing.WithClock(opts.Clock)),
		opts:   opts,
	}
}

func (sh *shell) exec(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]
	e := sh.sess.engine

	switch name {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprint(sh.out, interactiveHelp)
	case "search":
		// Keep the raw remainder so inner spacing survives.
		text := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		sh.search.Call(text)
	case "sort":
		if len(args) != 1 {
			return false, errors.InvalidParam("usage: sort <field>")
		}
		field, err := company.ParseField(args[0])
		if err != nil {
			return false, err
		}
		e.ToggleSort(field)
	case "order":
		if len(args) != 1 {
			return false, errors.InvalidParam("usage: order asc|desc")
		}
		order, err := query.ParseSortOrder(args[0])
		if err != nil {
			return false, err
		}
		e.UpdateQuery(func(q *query.State) { q.SetSort(q.SortField, order) })
	case "range":
		return false, sh.setRange(args)
	case "clear":
		if len(args) != 1 {
			return false, errors.InvalidParam("usage: clear <field>")
		}
		field, err := query.ParseRangeName(args[0])
		if err != nil {
			return false, err
		}
		e.ClearRangeFilter(field)
	case "high":
		on, err := parseSwitch(args)
		if err != nil {
			return false, err
		}
		e.SetHighPerformersOnly(on)
	case "reset":
		sh.search.Flush()
		sh.scrollTop = 0
		e.ResetQuery()
	case "show":
		if len(args) > 0 {
			top, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return false, errors.InvalidParam("scrollTop must be a number").WithDetail(args[0])
			}
			sh.scrollTop = top
		}
		sh.show()
	case "stats":
		sh.stats()
	case "select":
		if len(args) != 1 {
			return false, errors.InvalidParam("usage: select <uuid>")
		}
		sh.selectCompany(args[0])
	case "status":
		sh.status()
	case "retry":
		issued, err := sh.sess.service.Retry(ctx)
		if !issued {
			fmt.Fprintln(sh.out, "Retry throttled; try again shortly.")
			return false, nil
		}
		if err != nil {
			return false, err
		}
		fmt.Fprintln(sh.out, "Reloaded.")
	default:
		return false, errors.InvalidParam("unknown command, try help").WithDetail(name)
	}
	return false, nil
}

func (sh *shell) setRange(args []string) error {
	if len(args) != 3 {
		return errors.InvalidParam("usage: range <field> <min> <max>")
	}
	field, err := query.ParseRangeName(args[0])
	if err != nil {
		return err
	}
	r := query.Full
	if args[1] != "-" {
		if r.Min, err = strconv.ParseFloat(args[1], 64); err != nil {
			return errors.InvalidParam("invalid range minimum").WithDetail(args[1])
		}
	}
	if args[2] != "-" {
		if r.Max, err = strconv.ParseFloat(args[2], 64); err != nil {
			return errors.InvalidParam("invalid range maximum").WithDetail(args[2])
		}
	}
	if field == company.FieldAllowanceRate {
		r = normalizeRate(r)
	}
	return sh.sess.engine.SetRangeFilter(field, r.Min, r.Max)
}

func parseSwitch(args []string) (bool, error) {
	if len(args) != 1 {
		return false, errors.InvalidParam("usage: high on|off")
	}
	switch strings.ToLower(args[0]) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, errors.InvalidParam("expected on or off").WithDetail(args[0])
}

// current applies any pending search and waits for queued changes, so the
// view reflects every command entered so far.
func (sh *shell) current() view.View {
	sh.search.Flush()
	sh.sess.engine.Sync()
	return sh.sess.engine.View()
}

func (sh *shell) show() {
	v := sh.current()
	if len(v.Rows) == 0 {
		if v.Loading {
			fmt.Fprintln(sh.out, "Loading...")
		} else {
			fmt.Fprintln(sh.out, "No companies match the current filters.")
		}
		return
	}
	w := presenter.Window(len(v.Rows), sh.opts.RowHeight, sh.opts.Viewport, sh.scrollTop)
	if w.Start >= w.End {
		fmt.Fprintf(sh.out, "Scrolled past the last of %d rows.\n", len(v.Rows))
		return
	}
	headers, rows := sh.r.companyRows(v.Rows[w.Start:w.End])
	sh.r.table(headers, rows)
	fmt.Fprintf(sh.out, "Rows %d-%d of %d (%d loaded) · %s\n", w.Start+1, w.End, len(v.Rows), v.Total, v.Query.String())
}

func (sh *shell) stats() {
	cards := presenter.StatCards(sh.current().Stats)
	if cards == nil {
		fmt.Fprintln(sh.out, presenter.NoStatsMessage)
		return
	}
	rows := make([][]string, len(cards))
	for i, c := range cards {
		rows[i] = []string{c.Title, c.Value, c.Description}
	}
	sh.r.table([]string{"Metric", "Value", "Description"}, rows)
}

func (sh *shell) selectCompany(id string) {
	sh.current()
	if !sh.sess.engine.Select(id) {
		fmt.Fprintf(sh.out, "No company with id %s\n", id)
		return
	}
	v := sh.current()
	if v.Selected == nil {
		return
	}
	cols := company.DefaultColumns()
	cells := presenter.Row(cols, *v.Selected)
	for i, col := range cols {
		fmt.Fprintf(sh.out, "%-24s %s\n", col.Label+":", sh.r.paint(cells[i]))
	}
}

func (sh *shell) status() {
	v := sh.current()
	loading, pending := sh.sess.service.Status()
	fmt.Fprintf(sh.out, "query:   %s\n", v.Query.String())
	fmt.Fprintf(sh.out, "rows:    %d of %d\n", len(v.Rows), v.Total)
	if loading {
		fmt.Fprintf(sh.out, "loading: %s\n", strings.Join(pending, ", "))
	}
	if v.Error != nil {
		fmt.Fprintf(sh.out, "error:   %s\n", *v.Error)
	}
}

// statusReporter prints loading transitions and new errors as views are
// published.
type statusReporter struct {
	out     io.Writer
	loading bool
	lastErr string
}

func newStatusReporter(out io.Writer) *statusReporter {
	return &statusReporter{out: out}
}

func (s *statusReporter) report(v view.View) {
	errText := ""
	if v.Error != nil {
		errText = *v.Error
	}
	if errText != "" && errText != s.lastErr {
		fmt.Fprintf(s.out, "Error: %s\n", errText)
	}
	s.lastErr = errText

	switch {
	case v.Loading && !s.loading:
		fmt.Fprintln(s.out, "Loading...")
	case !v.Loading && s.loading:
		fmt.Fprintf(s.out, "Loaded %d companies.\n", v.Total)
	}
	s.loading = v.Loading
}
