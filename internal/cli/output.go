package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"sdr-automation-go/internal/types"
)

const rule = "============================================================"

func printResult(w io.Writer, r types.CallResult) {
	c := r.Classification

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Call %s\n", r.CallID)
	fmt.Fprintf(w, "%s Decision:   %s\n", c.Decision.Emoji(), c.Decision)
	fmt.Fprintf(w, "Confidence:   %d/10\n", c.Confidence)
	fmt.Fprintf(w, "Reasoning:    %s\n", c.Reasoning)

	if r.Prospect != nil {
		name := r.Prospect.FullName()
		if r.Prospect.Company != "" {
			name += " (" + r.Prospect.Company + ")"
		}
		fmt.Fprintf(w, "Prospect:     %s\n", name)
	}

	fmt.Fprintf(w, "Action:       %s\n", describeOutcome(r.Outcome))
	if e := r.Outcome.Email; e != nil {
		fmt.Fprintf(w, "Email:        %q at %s\n", e.Subject, e.SendAt.Format(time.RFC1123))
		if r.Outcome.Drafted {
			fmt.Fprintln(w, strings.Repeat("-", 50))
			fmt.Fprintln(w, strings.TrimRight(e.Body, "\n"))
			fmt.Fprintln(w, strings.Repeat("-", 50))
		}
	}
	if r.TaskID != "" {
		fmt.Fprintf(w, "Salesforce:   task %s\n", r.TaskID)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Error:        %s\n", r.Error)
	}
	fmt.Fprintln(w, rule)
}

func describeOutcome(o types.Outcome) string {
	switch {
	case o.Error != "":
		return fmt.Sprintf("%s failed: %s", o.Action, o.Error)
	case o.Skipped != "":
		return fmt.Sprintf("%s skipped (%s)", o.Action, o.Skipped)
	case o.Scheduled:
		return "email scheduled in Outreach"
	case o.Drafted:
		return "email drafted (auto-send is off)"
	case o.AddedSequence != "":
		return "added to " + o.AddedSequence
	case o.Action == types.ActionDisqualify:
		return fmt.Sprintf("disqualified, removed from %d sequence(s)", o.RemovedCount)
	default:
		return "flagged for manual review"
	}
}
