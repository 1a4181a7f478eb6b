package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/cheatscan/internal/arcode"
	"github.com/nao1215/cheatscan/internal/model"
	"github.com/nao1215/cheatscan/internal/report"
	"github.com/nao1215/cheatscan/internal/scan"
)

// command is one console verb.
type command struct {
	run  func(c *Console, ctx context.Context, args []string) error
	quit bool
}

var commands = map[string]command{
	"region":   {run: (*Console).cmdRegion},
	"type":     {run: (*Console).cmdType},
	"base":     {run: (*Console).cmdBase},
	"range":    {run: (*Console).cmdRange},
	"new":      {run: (*Console).cmdNew},
	"next":     {run: (*Console).cmdNext},
	"refresh":  {run: (*Console).cmdRefresh},
	"view":     {run: (*Console).cmdView},
	"watch":    {run: (*Console).cmdWatch},
	"interval": {run: (*Console).cmdInterval},
	"step":     {run: (*Console).cmdStep},
	"ar":       {run: (*Console).cmdAR},
	"reset":    {run: (*Console).cmdReset},
	"count":    {run: (*Console).cmdCount},
	"status":   {run: (*Console).cmdStatus},
	"help":     {run: (*Console).cmdHelp},
	"?":        {run: (*Console).cmdHelp},
	"quit":     {quit: true},
	"exit":     {quit: true},
}

const usage = `Commands:
  region <main|extended|vmem>   select the memory region
  type <8|16|32|float>          select the value type
  base <dec|hex|oct>            select the numeral base for values
  range <start> [end]           limit the search to a hex address range
  new                           start a search on the selected region
  next <op> [value]             refine: op is eq, ne, gt, lt or unknown;
                                without value compare to the previous value
  refresh                       re-read the visible rows
  view <first> [last]           show rows first..last (view all resets)
  watch on|off                  refresh the rows periodically
  interval <ms>                 refresh cadence, 100..5000 ms
  step [n]                      advance the memory source n steps
  ar <row>                      print an action replay code for a row
  reset                         discard the search
  count                         print the number of matches
  status                        print the search settings
  quit                          leave the console
`

func (c *Console) cmdHelp(context.Context, []string) error {
	_, err := fmt.Fprint(c.out, usage)
	return err
}

func (c *Console) cmdRegion(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: region <selector>", ErrMissingArgument)
	}
	if c.session.Active() {
		return ErrSearchActive
	}
	sel, err := model.ParseSelector(args[0])
	if err != nil {
		return err
	}
	r, err := c.provider.Select(ctx, sel)
	if err != nil {
		return err
	}
	c.selector = sel
	_, err = fmt.Fprintf(c.out, "region %s\n", r)
	return err
}

func (c *Console) cmdType(_ context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: type <8|16|32|float>", ErrMissingArgument)
	}
	if c.session.Active() {
		return ErrSearchActive
	}
	vt, err := model.ParseValueType(args[0])
	if err != nil {
		return err
	}
	c.valueType = vt
	_, err = fmt.Fprintf(c.out, "type %s\n", vt)
	return err
}

func (c *Console) cmdBase(_ context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: base <dec|hex|oct>", ErrMissingArgument)
	}
	base, err := model.ParseBase(args[0])
	if err != nil {
		return err
	}
	c.base = base
	_, err = fmt.Fprintf(c.out, "base %s\n", base)
	return err
}

func (c *Console) cmdRange(_ context.Context, args []string) error {
	switch len(args) {
	case 0:
		return fmt.Errorf("%w: range <start> [end]", ErrMissingArgument)
	case 1:
		c.rangeStart, c.rangeEnd = args[0], ""
	default:
		c.rangeStart, c.rangeEnd = args[0], args[1]
	}
	if strings.EqualFold(c.rangeStart, "all") {
		c.rangeStart, c.rangeEnd = "", ""
	}
	_, err := fmt.Fprintf(c.out, "range %s-%s (applies to the next search)\n",
		orDefault(c.rangeStart, "start"), orDefault(c.rangeEnd, "end"))
	return err
}

func (c *Console) cmdNew(ctx context.Context, _ []string) error {
	r, err := c.provider.Select(ctx, c.selector)
	if err != nil {
		return err
	}
	if err := c.session.Initialize(ctx, r, c.valueType, c.rangeStart, c.rangeEnd); err != nil {
		return err
	}
	c.view = scan.All()
	return c.update(ctx)
}

func (c *Console) cmdNext(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: next <op> [value]", ErrMissingArgument)
	}
	if !c.session.Active() {
		return scan.ErrSessionNotInitialized
	}
	cmp, err := scan.ParseComparison(strings.Join(args, " "), c.session.ValueType(), c.base)
	if err != nil {
		return err
	}
	if err := c.session.Refine(ctx, cmp); err != nil {
		return err
	}
	return c.update(ctx)
}

func (c *Console) cmdRefresh(ctx context.Context, _ []string) error {
	return c.update(ctx)
}

func (c *Console) cmdView(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: view <first> [last]", ErrMissingArgument)
	}
	if strings.EqualFold(args[0], "all") {
		c.view = scan.All()
		return c.update(ctx)
	}
	first, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	last := -1
	if len(args) > 1 {
		if last, err = parseIndex(args[1]); err != nil {
			return err
		}
	}
	c.view = scan.Visible(first, last)
	return c.update(ctx)
}

func (c *Console) cmdWatch(_ context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: watch on|off", ErrMissingArgument)
	}
	switch strings.ToLower(args[0]) {
	case "on", "true", "1":
		c.scheduler.SetEnabled(true)
	case "off", "false", "0":
		c.scheduler.SetEnabled(false)
	default:
		return fmt.Errorf("%w: watch %q", ErrInvalidArgument, args[0])
	}
	_, err := fmt.Fprintf(c.out, "watch %s every %s\n", onOff(c.scheduler.Enabled()), c.scheduler.Interval())
	return err
}

func (c *Console) cmdInterval(_ context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: interval <ms>", ErrMissingArgument)
	}
	ms, err := strconv.Atoi(strings.TrimSuffix(args[0], "ms"))
	if err != nil {
		return fmt.Errorf("%w: interval %q", ErrInvalidArgument, args[0])
	}
	d := c.scheduler.SetInterval(time.Duration(ms) * time.Millisecond)
	_, err = fmt.Fprintf(c.out, "interval %s\n", d)
	return err
}

func (c *Console) cmdStep(ctx context.Context, args []string) error {
	if c.stepper == nil {
		return ErrNoStepper
	}
	n := 1
	if len(args) > 0 {
		var err error
		if n, err = parseIndex(args[0]); err != nil || n == 0 {
			return fmt.Errorf("%w: step %q", ErrInvalidArgument, args[0])
		}
	}
	for i := range n {
		if err := c.stepper(ctx); err != nil {
			return fmt.Errorf("step %d of %d: %w", i+1, n, err)
		}
	}
	_, err := fmt.Fprintf(c.out, "stepped %d\n", n)
	return err
}

func (c *Console) cmdAR(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: ar <row>", ErrMissingArgument)
	}
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	result, err := c.session.Decode(ctx, scan.Visible(index, index))
	if err != nil {
		return err
	}
	if len(result.Rows) == 0 {
		return fmt.Errorf("%w: %d", ErrRowOutOfView, index)
	}
	line, err := arcode.ForRow(result.Rows[0], c.session.ValueType().Width)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, line)
	return err
}

func (c *Console) cmdReset(context.Context, []string) error {
	c.session.Reset()
	c.scheduler.Stop()
	c.view = scan.All()
	_, err := fmt.Fprintln(c.out, "search reset")
	return err
}

func (c *Console) cmdCount(context.Context, []string) error {
	if !c.session.Active() {
		return scan.ErrSessionNotInitialized
	}
	n := c.session.Count()
	label := report.Label(&model.Result{
		Survivors:   n,
		Displayable: min(n, c.session.DisplayCap()),
	})
	_, err := fmt.Fprintln(c.out, label)
	return err
}

func (c *Console) cmdStatus(context.Context, []string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "state:    %s\n", c.session.State())
	fmt.Fprintf(&sb, "region:   %s\n", c.selector)
	fmt.Fprintf(&sb, "type:     %s\n", c.valueType)
	fmt.Fprintf(&sb, "base:     %s\n", c.base)
	fmt.Fprintf(&sb, "range:    %s-%s\n", orDefault(c.rangeStart, "start"), orDefault(c.rangeEnd, "end"))
	if c.session.Active() {
		fmt.Fprintf(&sb, "searched: %s\n", c.session.Range())
		fmt.Fprintf(&sb, "passes:   %d\n", c.session.Passes())
	}
	fmt.Fprintf(&sb, "watch:    %s every %s\n", onOff(c.scheduler.Enabled()), c.scheduler.Interval())
	_, err := fmt.Fprint(c.out, sb.String())
	return err
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q is not a row number", ErrInvalidArgument, s)
	}
	return n, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
