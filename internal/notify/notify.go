package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/slack-go/slack"
	"sdr-automation-go/internal/aggregator"
	"sdr-automation-go/internal/config"
	"sdr-automation-go/internal/logger"
	"sdr-automation-go/internal/types"
)

// ResendDrafts mails drafted follow-ups to the rep so they can review and
// send them by hand.
type ResendDrafts struct {
	client *resend.Client
	from   string
	to     string
	log    *logger.Logger
}

// NewResendDrafts returns nil when RESEND_API_KEY is unset.
func NewResendDrafts(cfg config.Resend, sender config.Sender, log *logger.Logger) *ResendDrafts {
	if cfg.APIKey == "" {
		return nil
	}
	if log == nil {
		log = logger.New()
	}
	from := cfg.From
	if from == "" {
		from = sender.Email
	}
	return &ResendDrafts{
		client: resend.NewClient(cfg.APIKey),
		from:   from,
		to:     sender.Email,
		log:    log.With("component", "resend"),
	}
}

func (r *ResendDrafts) NotifyDraft(ctx context.Context, p types.Prospect, e types.Email) error {
	to := p.Email
	if to == "" {
		to = "(no email)"
	}

	body := fmt.Sprintf("Draft follow-up for %s <%s>\nSuggested send time: %s\nSubject: %s\n\n%s",
		p.FullName(), to, e.SendAt.Format(time.RFC1123), e.Subject, e.Body)

	resp, err := r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    r.from,
		To:      []string{r.to},
		Subject: "[Draft] " + e.Subject,
		Text:    body,
	})
	if err != nil {
		return fmt.Errorf("resend draft: %w", err)
	}

	r.log.WithField("resend_id", resp.Id).Info("draft delivered")
	return nil
}

// Slack posts run summaries to a channel.
type Slack struct {
	client  *slack.Client
	channel string
	log     *logger.Logger
}

// NewSlack returns nil unless both the bot token and channel are set. apiURL
// overrides the Slack endpoint when non-empty.
func NewSlack(cfg config.Slack, apiURL string, log *logger.Logger) *Slack {
	if cfg.BotToken == "" || cfg.Channel == "" {
		return nil
	}
	if log == nil {
		log = logger.New()
	}

	var opts []slack.Option
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &Slack{
		client:  slack.New(cfg.BotToken, opts...),
		channel: cfg.Channel,
		log:     log.With("component", "slack"),
	}
}

func (s *Slack) PostSummary(ctx context.Context, sum aggregator.Summary) error {
	_, ts, err := s.client.PostMessageContext(ctx, s.channel, slack.MsgOptionText(FormatSummary(sum), false))
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	s.log.WithField("ts", ts).Debug("summary posted")
	return nil
}

// FormatSummary renders a summary as a short plain-text report.
func FormatSummary(sum aggregator.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Processed %d call(s)", sum.Total)
	if sum.Total > 0 {
		fmt.Fprintf(&b, ", avg confidence %.1f/10", sum.AverageConfidence)
	}
	b.WriteString("\n")

	for _, d := range aggregator.DecisionOrder {
		if n := sum.ByDecision[d]; n > 0 {
			fmt.Fprintf(&b, "%s %s: %d\n", d.Emoji(), d, n)
		}
	}
	if sum.Scheduled > 0 || sum.Drafted > 0 {
		fmt.Fprintf(&b, "Emails: %d scheduled, %d drafted\n", sum.Scheduled, sum.Drafted)
	}
	if sum.Errors > 0 {
		fmt.Fprintf(&b, "Errors: %d\n", sum.Errors)
	}
	return strings.TrimRight(b.String(), "\n")
}
