package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"sdr-automation-go/internal/classifier"
	"sdr-automation-go/internal/config"
	"sdr-automation-go/internal/logger"
	"sdr-automation-go/internal/salesforce"
)

const pingTimeout = 10 * time.Second

func newCheckCommand(log *logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check configuration and connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if failed := runChecks(cmd.Context(), cmd.OutOrStdout(), cfg, log); failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
}

type checker struct {
	w      io.Writer
	failed int
}

func (c *checker) ok(name, detail string) { fmt.Fprintf(c.w, "  ✅ %-12s %s\n", name, detail) }

func (c *checker) demo(name, missing string) {
	fmt.Fprintf(c.w, "  📋 %-12s demo mode (%s not set)\n", name, missing)
}

func (c *checker) fail(name string, err error) {
	c.failed++
	fmt.Fprintf(c.w, "  ❌ %-12s %v\n", name, err)
}

// runChecks prints one line per integration and returns the number of
// failures. Vendors in demo mode do not count as failures.
func runChecks(ctx context.Context, w io.Writer, cfg config.Config, log *logger.Logger) int {
	c := &checker{w: w}

	fmt.Fprintln(w, "Language model:")
	cls, err := classifier.NewFromConfig(cfg.LLM, log)
	if err != nil {
		c.fail(cfg.LLM.Provider, err)
	} else {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		if err := cls.Ping(pctx); err != nil {
			c.fail(cfg.LLM.Provider, err)
		} else {
			c.ok(cfg.LLM.Provider, "model "+cfg.LLM.Model)
		}
		cancel()
	}

	fmt.Fprintln(w, "Integrations:")
	if cfg.Salesforce.Configured() {
		if _, err := salesforce.New(ctx, cfg.Salesforce, log); err != nil {
			c.fail("Salesforce", err)
		} else {
			c.ok("Salesforce", "connected")
		}
	} else if cfg.Salesforce.MissingAppCredentials() {
		c.fail("Salesforce", errors.New("SALESFORCE_CLIENT_ID and SALESFORCE_CLIENT_SECRET are not set, running in demo mode"))
	} else {
		c.demo("Salesforce", "SALESFORCE_* credentials")
	}
	keyed(c, "Outreach", cfg.Outreach.APIKey, "OUTREACH_API_KEY")
	keyed(c, "Orum", cfg.Orum.APIKey, "ORUM_API_KEY")
	keyed(c, "Resend", cfg.Resend.APIKey, "RESEND_API_KEY")
	if cfg.Slack.BotToken != "" && cfg.Slack.Channel != "" {
		c.ok("Slack", "posting to "+cfg.Slack.Channel)
	} else {
		fmt.Fprintf(w, "  ➖ %-12s disabled\n", "Slack")
	}

	fmt.Fprintln(w, "Settings:")
	fmt.Fprintf(w, "  sender       %s <%s>, %s\n", cfg.Sender.Name, cfg.Sender.Email, cfg.Sender.Company)
	fmt.Fprintf(w, "  emails       auto-send=%t, sent at %s %s\n", cfg.AutoSendEmails, cfg.Schedule.DefaultEmailTime, cfg.Schedule.Timezone)
	fmt.Fprintf(w, "  salesforce   auto-update=%t, remove dead ends=%t\n", cfg.AutoUpdateSF, cfg.AutoRemoveDead)
	fmt.Fprintf(w, "  auto mode    every %s, %s between calls\n", cfg.CheckInterval, cfg.CallDelay)

	return c.failed
}

func keyed(c *checker, name, key, env string) {
	if key == "" {
		c.demo(name, env)
		return
	}
	c.ok(name, "API key configured")
}
