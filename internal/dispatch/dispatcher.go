package dispatch

import (
	"context"
	"fmt"
	"time"

	"sdr-automation-go/internal/logger"
	"sdr-automation-go/internal/types"
)

const previewLen = 200

// Sequencer is the slice of Outreach the dispatcher drives.
type Sequencer interface {
	ScheduleEmail(ctx context.Context, email, subject, body string, sendAt time.Time) error
	AddToSequence(ctx context.Context, email, sequenceName string) error
	RemoveFromAllSequences(ctx context.Context, email string) (int, error)
}

// Composer renders follow-up emails.
type Composer interface {
	Interested(p types.Prospect, c types.Classification) (types.Email, error)
	Warm(p types.Prospect, c types.Classification) (types.Email, error)
}

// DraftNotifier receives emails that were drafted instead of scheduled.
type DraftNotifier interface {
	NotifyDraft(ctx context.Context, p types.Prospect, e types.Email) error
}

type Options struct {
	AutoSend        bool
	AutoRemoveDead  bool
	NurtureSequence string
}

// Dispatcher maps a classification onto the vendor calls for its label.
type Dispatcher struct {
	seq      Sequencer
	composer Composer
	drafts   DraftNotifier
	opts     Options
	log      *logger.Logger
}

// New builds a Dispatcher. drafts may be nil.
func New(seq Sequencer, composer Composer, drafts DraftNotifier, opts Options, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.New()
	}
	if opts.NurtureSequence == "" {
		opts.NurtureSequence = "Long-Term Nurture"
	}
	return &Dispatcher{
		seq:      seq,
		composer: composer,
		drafts:   drafts,
		opts:     opts,
		log:      log.With("component", "dispatch"),
	}
}

// Dispatch runs the action for c.Decision. p may be nil when the caller has no
// prospect email. A vendor failure is returned and also recorded on the Outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, c types.Classification, p *types.Prospect) (types.Outcome, error) {
	out := types.Outcome{Action: types.NextActionFor(c.Decision)}

	var err error
	switch out.Action {
	case types.ActionSendEmail:
		err = d.followUp(ctx, c, p, &out)
	case types.ActionNurture:
		err = d.nurture(ctx, p, &out)
	case types.ActionDisqualify:
		err = d.disqualify(ctx, p, &out)
	default:
		out.Action = types.ActionManualReview
		d.log.WithField("decision", c.Decision).Warn("flagged for manual review")
	}

	if err != nil {
		out.Error = err.Error()
	}
	return out, err
}

func (d *Dispatcher) followUp(ctx context.Context, c types.Classification, p *types.Prospect, out *types.Outcome) error {
	if p == nil || p.Email == "" {
		out.Skipped = "no prospect data"
		d.log.Warn("cannot send email without prospect data")
		return nil
	}

	var (
		email types.Email
		err   error
	)
	if c.Decision == types.DecisionInterested {
		email, err = d.composer.Interested(*p, c)
	} else {
		email, err = d.composer.Warm(*p, c)
	}
	if err != nil {
		return fmt.Errorf("compose email: %w", err)
	}
	out.Email = &email

	log := d.log.WithField("subject", email.Subject).WithField("send_at", email.SendAt.Format(time.RFC3339))
	log.Info("email generated")

	if d.opts.AutoSend {
		if err := d.seq.ScheduleEmail(ctx, p.Email, email.Subject, email.Body, email.SendAt); err != nil {
			return fmt.Errorf("schedule email: %w", err)
		}
		out.Scheduled = true
		log.Info("email scheduled")
		return nil
	}

	out.Drafted = true
	log.WithField("preview", preview(email.Body)).Info("email drafted (auto-send is off)")
	if d.drafts != nil {
		if err := d.drafts.NotifyDraft(ctx, *p, email); err != nil {
			d.log.WithError(err).Warn("draft notification failed")
		}
	}
	return nil
}

func (d *Dispatcher) nurture(ctx context.Context, p *types.Prospect, out *types.Outcome) error {
	if p == nil || p.Email == "" {
		out.Skipped = "no prospect email"
		return nil
	}
	if err := d.seq.AddToSequence(ctx, p.Email, d.opts.NurtureSequence); err != nil {
		return fmt.Errorf("add to nurture sequence: %w", err)
	}
	out.AddedSequence = d.opts.NurtureSequence
	return nil
}

func (d *Dispatcher) disqualify(ctx context.Context, p *types.Prospect, out *types.Outcome) error {
	if p == nil || p.Email == "" {
		out.Skipped = "no prospect email"
		return nil
	}
	if !d.opts.AutoRemoveDead {
		out.Skipped = "auto-remove is off"
		d.log.Info("auto-remove is off, keeping in sequences")
		return nil
	}

	n, err := d.seq.RemoveFromAllSequences(ctx, p.Email)
	if err != nil {
		return fmt.Errorf("remove from sequences: %w", err)
	}
	out.RemovedCount = n
	d.log.WithField("count", n).Info("removed from sequences")
	return nil
}

func preview(body string) string {
	r := []rune(body)
	if len(r) <= previewLen {
		return body
	}
	return string(r[:previewLen]) + "..."
}
