package processor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"sdr-automation-go/internal/aggregator"
	"sdr-automation-go/internal/classifier"
	"sdr-automation-go/internal/dataset"
	"sdr-automation-go/internal/logger"
	"sdr-automation-go/internal/transcript"
	"sdr-automation-go/internal/types"
)

const disqualifiedStatus = "Disqualified"

type Classifier interface {
	Classify(ctx context.Context, transcript, prospectName string) (types.Classification, error)
}

// Directory is the CRM side: prospect lookup and activity logging.
type Directory interface {
	GetContactInfo(ctx context.Context, email string) (*types.Prospect, error)
	LogCallActivity(ctx context.Context, whoID, transcript string, c types.Classification) (string, error)
	UpdateLeadStatus(ctx context.Context, id, status string, isLead bool) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, c types.Classification, p *types.Prospect) (types.Outcome, error)
}

// Feed lists calls completed within a window and fetches single calls.
type Feed interface {
	RecentTranscripts(ctx context.Context, window time.Duration) ([]types.Transcript, error)
	TranscriptByID(ctx context.Context, id string) (types.Transcript, error)
}

type AudioSource interface {
	Transcribe(ctx context.Context, path string) (types.Transcript, error)
}

type SummaryPoster interface {
	PostSummary(ctx context.Context, sum aggregator.Summary) error
}

// Deps are the collaborators of an Automation. Feed, Audio and Summaries are
// optional; the modes that need them fail without them.
type Deps struct {
	Classifier Classifier
	Directory  Directory
	Dispatcher Dispatcher
	Feed       Feed
	Audio      AudioSource
	Summaries  SummaryPoster
}

type Options struct {
	AutoUpdateSF  bool
	CheckInterval time.Duration
	CallDelay     time.Duration
}

// Automation runs transcripts through lookup, classification, dispatch and
// CRM logging.
type Automation struct {
	deps    Deps
	opts    Options
	limiter *rate.Limiter
	seen    map[string]struct{}
	log     *logger.Logger
}

func New(deps Deps, opts Options, log *logger.Logger) *Automation {
	if log == nil {
		log = logger.New()
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = 5 * time.Minute
	}

	limit := rate.Inf
	if opts.CallDelay > 0 {
		limit = rate.Every(opts.CallDelay)
	}
	return &Automation{
		deps:    deps,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		seen:    map[string]struct{}{},
		log:     log.With("component", "processor"),
	}
}

// ProcessCall handles one transcript end to end. Failures of individual steps
// are recorded on the result; the call is never retried here.
func (a *Automation) ProcessCall(ctx context.Context, t types.Transcript) types.CallResult {
	start := time.Now()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	log := a.log.WithCall(t)
	res := types.CallResult{CallID: t.ID, Transcript: t}

	log.Info("processing call")

	prospect := a.lookup(ctx, log, t.ProspectEmail)
	res.Prospect = prospect

	name := ""
	if prospect != nil {
		name = prospect.FullName()
	}
	c, err := a.deps.Classifier.Classify(ctx, t.Text, name)
	if err != nil {
		log.WithError(err).Error("classification failed")
		c = classifier.ErrorResult(err)
		res.Error = err.Error()
	}
	res.Classification = c

	log.WithField("decision", c.Decision).
		WithField("confidence", c.Confidence).
		WithField("reasoning", c.Reasoning).
		Infof("%s call classified", c.Decision.Emoji())

	outcome, err := a.deps.Dispatcher.Dispatch(ctx, c, prospect)
	if err != nil {
		log.WithError(err).Warn("action failed")
	}
	res.Outcome = outcome

	if a.opts.AutoUpdateSF && prospect != nil && prospect.ID != "" {
		res.TaskID = a.updateCRM(ctx, log, t, c, prospect)
	}

	res.DurationMs = time.Since(start).Milliseconds()
	log.WithField("duration_ms", res.DurationMs).Info("processing complete")
	return res
}

// lookup returns nil without an email, and a placeholder prospect when the
// email is unknown to the CRM or the lookup fails.
func (a *Automation) lookup(ctx context.Context, log *logger.Logger, email string) *types.Prospect {
	if email == "" {
		log.Info("no prospect email, skipping lookup")
		return nil
	}

	p, err := a.deps.Directory.GetContactInfo(ctx, email)
	if err != nil {
		log.WithError(err).Warn("prospect lookup failed")
	}
	if p == nil {
		log.Warn("no CRM record found")
		return &types.Prospect{Email: email, FirstName: "there"}
	}

	log.WithField("prospect", p.FullName()).WithField("company", p.Company).Info("prospect found")
	return p
}

func (a *Automation) updateCRM(ctx context.Context, log *logger.Logger, t types.Transcript, c types.Classification, p *types.Prospect) string {
	taskID, err := a.deps.Directory.LogCallActivity(ctx, p.ID, t.Text, c)
	if err != nil {
		log.WithError(err).Warn("could not log call activity")
	}

	if c.Decision == types.DecisionDeadEnd {
		if err := a.deps.Directory.UpdateLeadStatus(ctx, p.ID, disqualifiedStatus, p.IsLead); err != nil {
			log.WithError(err).Warn("could not update lead status")
		}
	}
	return taskID
}

// RunManual processes a transcript file. When email is empty and in is
// non-nil the user is prompted for one on out.
func (a *Automation) RunManual(ctx context.Context, path, email string, in io.Reader, out io.Writer) (types.CallResult, error) {
	t, err := transcript.ReadFile(path)
	if err != nil {
		return types.CallResult{}, err
	}
	a.log.WithField("chars", len(t.Text)).WithField("path", path).Info("loaded transcript")

	if email == "" && in != nil {
		email, err = promptEmail(in, out)
		if err != nil {
			return types.CallResult{}, err
		}
	}
	t.ProspectEmail = email
	return a.ProcessCall(ctx, t), nil
}

func promptEmail(in io.Reader, out io.Writer) (string, error) {
	if out != nil {
		fmt.Fprint(out, "Enter prospect email (or press Enter to skip): ")
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read email: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// RunAudio transcribes a recording and processes it.
func (a *Automation) RunAudio(ctx context.Context, path, email string) (types.CallResult, error) {
	if a.deps.Audio == nil {
		return types.CallResult{}, errors.New("audio transcription is not configured")
	}
	t, err := a.deps.Audio.Transcribe(ctx, path)
	if err != nil {
		return types.CallResult{}, err
	}
	t.ProspectEmail = email
	return a.ProcessCall(ctx, t), nil
}

// RunCall fetches one call from the feed and processes it. email is used
// only when the call record has no prospect email.
func (a *Automation) RunCall(ctx context.Context, id, email string) (types.CallResult, error) {
	if a.deps.Feed == nil {
		return types.CallResult{}, errors.New("no transcript feed configured")
	}
	t, err := a.deps.Feed.TranscriptByID(ctx, id)
	if err != nil {
		return types.CallResult{}, err
	}
	if t.ProspectEmail == "" {
		t.ProspectEmail = email
	}
	return a.ProcessCall(ctx, t), nil
}

// RunAuto polls the feed immediately and then every CheckInterval until ctx
// is cancelled. Calls already handled by this process are skipped.
func (a *Automation) RunAuto(ctx context.Context) error {
	if a.deps.Feed == nil {
		return errors.New("no transcript feed configured")
	}

	a.log.WithField("interval", a.opts.CheckInterval.String()).Info("starting automatic mode")
	ticker := time.NewTicker(a.opts.CheckInterval)
	defer ticker.Stop()

	for {
		a.poll(ctx)

		select {
		case <-ctx.Done():
			a.log.Info("stopping automation")
			return nil
		case <-ticker.C:
		}
	}
}

func (a *Automation) poll(ctx context.Context) {
	a.log.Info("checking for new transcripts")
	transcripts, err := a.deps.Feed.RecentTranscripts(ctx, a.opts.CheckInterval)
	if err != nil {
		if ctx.Err() == nil {
			a.log.WithError(err).Error("fetching transcripts failed")
		}
		return
	}

	var fresh []types.Transcript
	for _, t := range transcripts {
		if t.ID != "" {
			if _, ok := a.seen[t.ID]; ok {
				continue
			}
			a.seen[t.ID] = struct{}{}
		}
		fresh = append(fresh, t)
	}
	if len(fresh) == 0 {
		a.log.Info("no new calls")
		return
	}

	a.log.WithField("count", len(fresh)).Info("found new calls")
	a.report(ctx, a.processAll(ctx, fresh))
}

// RunBatch processes every transcript in an xlsx workbook and, when
// reportPath is set, writes the results next to it.
func (a *Automation) RunBatch(ctx context.Context, path, reportPath string) ([]types.CallResult, error) {
	transcripts, err := dataset.LoadTranscripts(path, a.log)
	if err != nil {
		return nil, err
	}

	results := a.processAll(ctx, transcripts)
	if reportPath != "" {
		if err := dataset.WriteReport(reportPath, results); err != nil {
			return results, err
		}
		a.log.WithField("path", reportPath).Info("report written")
	}
	a.report(ctx, results)
	return results, ctx.Err()
}

func (a *Automation) processAll(ctx context.Context, transcripts []types.Transcript) []types.CallResult {
	results := make([]types.CallResult, 0, len(transcripts))
	for _, t := range transcripts {
		if err := a.limiter.Wait(ctx); err != nil {
			break
		}
		results = append(results, a.ProcessCall(ctx, t))
	}
	return results
}

func (a *Automation) report(ctx context.Context, results []types.CallResult) {
	if len(results) == 0 {
		return
	}
	sum := aggregator.Aggregate(results)
	a.log.WithField("total", sum.Total).
		WithField("errors", sum.Errors).
		WithField("avg_confidence", sum.AverageConfidence).
		Info("run summary")

	if a.deps.Summaries == nil {
		return
	}
	if err := a.deps.Summaries.PostSummary(ctx, sum); err != nil {
		a.log.WithError(err).Warn("summary notification failed")
	}
}
