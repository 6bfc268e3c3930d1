package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"sdr-automation-go/internal/classifier"
	"sdr-automation-go/internal/config"
	"sdr-automation-go/internal/dispatch"
	"sdr-automation-go/internal/logger"
	"sdr-automation-go/internal/notify"
	"sdr-automation-go/internal/orum"
	"sdr-automation-go/internal/outreach"
	"sdr-automation-go/internal/processor"
	"sdr-automation-go/internal/salesforce"
	"sdr-automation-go/internal/templates"
	"sdr-automation-go/internal/transcript"
)

var errNoMode = errors.New("choose one mode: --manual <file>, --call <id>, --auto, --audio <file> or --batch <xlsx>")

type rootOptions struct {
	manual string
	call   string
	auto   bool
	audio  string
	batch  string
	report string
	email  string
}

// mode returns the single selected mode.
func (o rootOptions) mode() (string, error) {
	var modes []string
	if o.manual != "" {
		modes = append(modes, "manual")
	}
	if o.call != "" {
		modes = append(modes, "call")
	}
	if o.auto {
		modes = append(modes, "auto")
	}
	if o.audio != "" {
		modes = append(modes, "audio")
	}
	if o.batch != "" {
		modes = append(modes, "batch")
	}

	switch len(modes) {
	case 0:
		return "", errNoMode
	case 1:
		if o.report != "" && modes[0] != "batch" {
			return "", errors.New("--report only applies to --batch")
		}
		return modes[0], nil
	default:
		return "", fmt.Errorf("modes are mutually exclusive, got %v", modes)
	}
}

// NewRootCommand creates the sdr command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(logger.New())
}

func newRootCommand(log *logger.Logger) *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "sdr",
		Short: "Classify sales call transcripts and run the follow-up actions",
		Long: `sdr reads a call transcript, asks a language model whether the prospect
is INTERESTED, WARM, NURTURE or a DEAD_END, and then schedules or drafts the
follow-up in Outreach and logs the call in Salesforce.

Examples:
  sdr --manual call.txt --email jane@school.edu
  sdr --call 8f2c1a
  sdr --auto
  sdr --batch calls.xlsx --report results.xlsx
  sdr check`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := opts.mode()
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			return run(cmd, mode, opts, cfg, log)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.manual, "manual", "", "process a transcript text file")
	f.StringVar(&opts.call, "call", "", "fetch one Orum call by id and process it")
	f.BoolVar(&opts.auto, "auto", false, "poll Orum for new calls until interrupted")
	f.StringVar(&opts.audio, "audio", "", "transcribe and process an audio recording")
	f.StringVar(&opts.batch, "batch", "", "process every transcript in an xlsx workbook")
	f.StringVar(&opts.report, "report", "", "write batch results to this xlsx file")
	f.StringVar(&opts.email, "email", "", "prospect email for --manual, --audio and --call")

	cmd.AddCommand(newCheckCommand(log))
	return cmd
}

func run(cmd *cobra.Command, mode string, opts rootOptions, cfg config.Config, log *logger.Logger) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	auto, err := buildAutomation(ctx, cfg, mode == "audio", log)
	if err != nil {
		return err
	}

	switch mode {
	case "manual":
		res, err := auto.RunManual(ctx, opts.manual, opts.email, cmd.InOrStdin(), out)
		if err != nil {
			return err
		}
		printResult(out, res)
	case "audio":
		res, err := auto.RunAudio(ctx, opts.audio, opts.email)
		if err != nil {
			return err
		}
		printResult(out, res)
	case "call":
		res, err := auto.RunCall(ctx, opts.call, opts.email)
		if err != nil {
			return err
		}
		printResult(out, res)
	case "auto":
		fmt.Fprintf(out, "Checking for new calls every %s. Press Ctrl+C to stop.\n", cfg.CheckInterval)
		return auto.RunAuto(ctx)
	case "batch":
		results, err := auto.RunBatch(ctx, opts.batch, opts.report)
		for _, r := range results {
			printResult(out, r)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}

func buildAutomation(ctx context.Context, cfg config.Config, withAudio bool, log *logger.Logger) (*processor.Automation, error) {
	cls, err := classifier.NewFromConfig(cfg.LLM, log)
	if err != nil {
		return nil, err
	}
	sf, err := salesforce.New(ctx, cfg.Salesforce, log)
	if err != nil {
		return nil, err
	}
	gen, err := templates.NewGenerator(cfg.Sender, cfg.Schedule)
	if err != nil {
		return nil, err
	}

	var drafts dispatch.DraftNotifier
	if r := notify.NewResendDrafts(cfg.Resend, cfg.Sender, log); r != nil {
		drafts = r
	}
	dispatcher := dispatch.New(outreach.New(cfg.Outreach, log), gen, drafts, dispatch.Options{
		AutoSend:        cfg.AutoSendEmails,
		AutoRemoveDead:  cfg.AutoRemoveDead,
		NurtureSequence: cfg.NurtureSequence,
	}, log)

	deps := processor.Deps{
		Classifier: cls,
		Directory:  sf,
		Dispatcher: dispatcher,
		Feed:       orum.New(cfg.Orum, log),
	}
	if s := notify.NewSlack(cfg.Slack, "", log); s != nil {
		deps.Summaries = s
	}
	if withAudio {
		a, err := transcript.NewAudioTranscriber(cfg.Whisper, log)
		if err != nil {
			return nil, err
		}
		deps.Audio = a
	}

	return processor.New(deps, processor.Options{
		AutoUpdateSF:  cfg.AutoUpdateSF,
		CheckInterval: cfg.CheckInterval,
		CallDelay:     cfg.CallDelay,
	}, log), nil
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
