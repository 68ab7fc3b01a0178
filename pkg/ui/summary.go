package ui

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"followsync/pkg/syncer"
)

// TargetLine prints one status line as a target finishes
func (t *Terminal) TargetLine(r syncer.TargetResult) {
	if t.quiet && r.Status != syncer.StatusFailed && r.Status != syncer.StatusPartial {
		return
	}

	var mark string
	switch r.Status {
	case syncer.StatusSucceeded:
		mark = green("✓")
	case syncer.StatusPartial:
		mark = yellow("◐")
	case syncer.StatusSkipped, syncer.StatusCanceled:
		mark = dim("–")
	default:
		mark = red("✗")
	}

	line := fmt.Sprintf("%s @%s %s", mark, accountLabel(r.Account), describe(r))
	if r.Err != nil {
		line += dim(" (" + r.Err.Error() + ")")
	}

	w := t.out
	if r.Status == syncer.StatusFailed || r.Status == syncer.StatusPartial {
		w = t.err
	}
	t.println(w, line)
}

func describe(r syncer.TargetResult) string {
	switch r.Status {
	case syncer.StatusSucceeded, syncer.StatusPartial:
		if r.DryRun {
			return fmt.Sprintf("would add %d of %d followers", r.Pending, r.Fetched)
		}
		return fmt.Sprintf("added %d of %d followers", r.Added, r.Fetched)
	case syncer.StatusSkipped:
		if r.Err == nil {
			return "no followers returned"
		}
		return "skipped"
	case syncer.StatusCanceled:
		return "canceled"
	default:
		return "failed at " + string(r.Stage)
	}
}

func accountLabel(account string) string {
	if account == "" {
		return "?"
	}
	return account
}

// Summary renders the per-target table and the run totals
func (t *Terminal) Summary(s syncer.Summary) error {
	if t.quiet {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(s.Results) > 0 {
		table := tablewriter.NewWriter(t.out)
		table.Header([]string{"Account", "Status", "Fetched", "Existing", "Added", "Stage"})
		for _, r := range s.Results {
			added := strconv.Itoa(r.Added)
			if r.DryRun {
				added = strconv.Itoa(r.Pending) + " (dry run)"
			}
			if err := table.Append([]string{
				accountLabel(r.Account),
				string(r.Status),
				strconv.Itoa(r.Fetched),
				strconv.Itoa(r.Existing),
				added,
				string(r.Stage),
			}); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	fmt.Fprintf(t.out, "%s %d targets: %s succeeded, %s skipped, %s failed, %d followers added\n",
		cyan("Summary:"), s.Total,
		green(strconv.Itoa(s.Succeeded)),
		dim(strconv.Itoa(s.Skipped)),
		red(strconv.Itoa(s.Failed)),
		s.Added)
	if s.Canceled {
		fmt.Fprintln(t.out, yellow("Run was interrupted; remaining targets were not started"))
	}
	return nil
}
