package processor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"sdr-automation-go/internal/aggregator"
	"sdr-automation-go/internal/logger"
	"sdr-automation-go/internal/types"
)

type fakeClassifier struct {
	decision types.Decision
	err      error
	names    []string
}

func (f *fakeClassifier) Classify(_ context.Context, transcript, name string) (types.Classification, error) {
	f.names = append(f.names, name)
	if f.err != nil {
		return types.Classification{}, f.err
	}
	return types.Classification{Decision: f.decision, Confidence: 8, NextAction: types.NextActionFor(f.decision)}, nil
}

type fakeDirectory struct {
	prospects map[string]*types.Prospect
	tasks     []string
	statuses  []string
}

func (f *fakeDirectory) GetContactInfo(_ context.Context, email string) (*types.Prospect, error) {
	return f.prospects[email], nil
}

func (f *fakeDirectory) LogCallActivity(_ context.Context, whoID, _ string, c types.Classification) (string, error) {
	f.tasks = append(f.tasks, whoID+":"+string(c.Decision))
	return "TASK-" + whoID, nil
}

func (f *fakeDirectory) UpdateLeadStatus(_ context.Context, id, status string, isLead bool) error {
	if isLead {
		f.statuses = append(f.statuses, id+":"+status)
	}
	return nil
}

type fakeDispatcher struct {
	prospects []*types.Prospect
}

func (f *fakeDispatcher) Dispatch(_ context.Context, c types.Classification, p *types.Prospect) (types.Outcome, error) {
	f.prospects = append(f.prospects, p)
	return types.Outcome{Action: types.NextActionFor(c.Decision)}, nil
}

type fakeFeed struct {
	mu      sync.Mutex
	batches [][]types.Transcript
	calls   int
	cancel  context.CancelFunc
}

func (f *fakeFeed) RecentTranscripts(context.Context, time.Duration) ([]types.Transcript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls > len(f.batches) {
		f.cancel()
		return nil, nil
	}
	return f.batches[f.calls-1], nil
}

func (f *fakeFeed) TranscriptByID(_ context.Context, id string) (types.Transcript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.batches {
		for _, t := range b {
			if t.ID == id {
				return t, nil
			}
		}
	}
	return types.Transcript{}, errors.New("not found")
}

type fakeSummaries struct{ sums []aggregator.Summary }

func (f *fakeSummaries) PostSummary(_ context.Context, s aggregator.Summary) error {
	f.sums = append(f.sums, s)
	return nil
}

type harness struct {
	classifier *fakeClassifier
	directory  *fakeDirectory
	dispatcher *fakeDispatcher
	summaries  *fakeSummaries
}

func newAutomation(decision types.Decision, opts Options) (*Automation, *harness) {
	h := &harness{
		classifier: &fakeClassifier{decision: decision},
		directory: &fakeDirectory{prospects: map[string]*types.Prospect{
			"dan@y.edu": {ID: "00QB", FirstName: "Dan", LastName: "Lauder", Email: "dan@y.edu", IsLead: true},
		}},
		dispatcher: &fakeDispatcher{},
		summaries:  &fakeSummaries{},
	}
	a := New(Deps{
		Classifier: h.classifier,
		Directory:  h.directory,
		Dispatcher: h.dispatcher,
		Summaries:  h.summaries,
	}, opts, logger.Discard())
	return a, h
}

func TestProcessCall_DeadEndKnownLead(t *testing.T) {
	a, h := newAutomation(types.DecisionDeadEnd, Options{AutoUpdateSF: true})

	res := a.ProcessCall(context.Background(), types.Transcript{ID: "c1", Text: "not interested", ProspectEmail: "dan@y.edu"})

	assert.Equal(t, "c1", res.CallID)
	assert.Equal(t, types.DecisionDeadEnd, res.Classification.Decision)
	assert.Equal(t, types.ActionDisqualify, res.Outcome.Action)
	assert.Equal(t, "TASK-00QB", res.TaskID)
	assert.Equal(t, []string{"Dan Lauder"}, h.classifier.names)
	assert.Equal(t, []string{"00QB:DEAD_END"}, h.directory.tasks)
	assert.Equal(t, []string{"00QB:Disqualified"}, h.directory.statuses)
	assert.Empty(t, res.Error)
}

func TestProcessCall_UnknownEmailGetsPlaceholder(t *testing.T) {
	a, h := newAutomation(types.DecisionInterested, Options{AutoUpdateSF: true})

	res := a.ProcessCall(context.Background(), types.Transcript{Text: "send me pricing", ProspectEmail: "new@z.edu"})

	require.NotNil(t, res.Prospect)
	assert.Equal(t, "there", res.Prospect.FirstName)
	assert.Equal(t, "new@z.edu", res.Prospect.Email)
	assert.NotEmpty(t, res.CallID)
	assert.Empty(t, res.TaskID)
	assert.Empty(t, h.directory.tasks)
	require.Len(t, h.dispatcher.prospects, 1)
	assert.Same(t, res.Prospect, h.dispatcher.prospects[0])
}

func TestProcessCall_NoEmail(t *testing.T) {
	a, h := newAutomation(types.DecisionNurture, Options{AutoUpdateSF: true})

	res := a.ProcessCall(context.Background(), types.Transcript{Text: "call me next year"})
	assert.Nil(t, res.Prospect)
	assert.Equal(t, []string{""}, h.classifier.names)
	require.Len(t, h.dispatcher.prospects, 1)
	assert.Nil(t, h.dispatcher.prospects[0])
}

func TestProcessCall_AutoUpdateOff(t *testing.T) {
	a, h := newAutomation(types.DecisionDeadEnd, Options{})

	res := a.ProcessCall(context.Background(), types.Transcript{Text: "no thanks", ProspectEmail: "dan@y.edu"})
	assert.Empty(t, res.TaskID)
	assert.Empty(t, h.directory.tasks)
	assert.Empty(t, h.directory.statuses)
}

func TestProcessCall_ClassifierError(t *testing.T) {
	a, h := newAutomation(types.DecisionWarm, Options{AutoUpdateSF: true})
	h.classifier.err = errors.New("ollama down")

	res := a.ProcessCall(context.Background(), types.Transcript{Text: "hi", ProspectEmail: "dan@y.edu"})
	assert.Equal(t, types.DecisionError, res.Classification.Decision)
	assert.Equal(t, types.ActionManualReview, res.Classification.NextAction)
	assert.Equal(t, "ollama down", res.Error)
	assert.Equal(t, types.ActionManualReview, res.Outcome.Action)
	assert.Equal(t, []string{"00QB:ERROR"}, h.directory.tasks)
	assert.Empty(t, h.directory.statuses)
}

func TestRunManual_PromptsForEmail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "call.txt")
	require.NoError(t, os.WriteFile(path, []byte("Prospect: not interested"), 0o644))

	a, _ := newAutomation(types.DecisionDeadEnd, Options{})
	var out bytes.Buffer
	res, err := a.RunManual(context.Background(), path, "", strings.NewReader("dan@y.edu\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Enter prospect email")
	assert.Equal(t, "dan@y.edu", res.Transcript.ProspectEmail)
	assert.Equal(t, "00QB", res.Prospect.ID)

	res, err = a.RunManual(context.Background(), path, "", strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Nil(t, res.Prospect)

	_, err = a.RunManual(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), "x@y.z", nil, nil)
	assert.Error(t, err)
}

type fakeAudio struct{}

func (fakeAudio) Transcribe(_ context.Context, path string) (types.Transcript, error) {
	return types.Transcript{ID: filepath.Base(path), Text: "[00:01] hello", Source: types.SourceAudio}, nil
}

func TestRunAudio(t *testing.T) {
	a, _ := newAutomation(types.DecisionWarm, Options{})
	_, err := a.RunAudio(context.Background(), "call.m4a", "")
	assert.Error(t, err)

	a.deps.Audio = fakeAudio{}
	res, err := a.RunAudio(context.Background(), "call.m4a", "dan@y.edu")
	require.NoError(t, err)
	assert.Equal(t, "call.m4a", res.CallID)
	assert.Equal(t, types.SourceAudio, res.Transcript.Source)
	assert.Equal(t, "dan@y.edu", res.Transcript.ProspectEmail)
}

func TestRunCall(t *testing.T) {
	a, _ := newAutomation(types.DecisionWarm, Options{})
	_, err := a.RunCall(context.Background(), "c1", "")
	assert.Error(t, err)

	a.deps.Feed = &fakeFeed{batches: [][]types.Transcript{{
		{ID: "c1", Text: "a", ProspectEmail: "jane@x.edu", Source: types.SourceOrum},
		{ID: "c2", Text: "b", Source: types.SourceOrum},
	}}}

	res, err := a.RunCall(context.Background(), "c1", "other@x.edu")
	require.NoError(t, err)
	assert.Equal(t, "c1", res.CallID)
	assert.Equal(t, "jane@x.edu", res.Transcript.ProspectEmail)

	res, err = a.RunCall(context.Background(), "c2", "dan@y.edu")
	require.NoError(t, err)
	assert.Equal(t, "dan@y.edu", res.Transcript.ProspectEmail)

	_, err = a.RunCall(context.Background(), "missing", "")
	assert.Error(t, err)
}

func TestRunAuto_SkipsSeenCalls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, h := newAutomation(types.DecisionInterested, Options{CheckInterval: 5 * time.Millisecond})
	feed := &fakeFeed{
		cancel: cancel,
		batches: [][]types.Transcript{
			{{ID: "c1", Text: "a"}, {ID: "c2", Text: "b"}},
			{{ID: "c2", Text: "b"}, {ID: "c3", Text: "c"}},
		},
	}
	a.deps.Feed = feed

	require.NoError(t, a.RunAuto(ctx))

	assert.Len(t, h.classifier.names, 3)
	require.Len(t, h.summaries.sums, 2)
	assert.Equal(t, 2, h.summaries.sums[0].Total)
	assert.Equal(t, 1, h.summaries.sums[1].Total)
}

func TestRunAuto_RequiresFeed(t *testing.T) {
	a, _ := newAutomation(types.DecisionWarm, Options{})
	assert.Error(t, a.RunAuto(context.Background()))
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "calls.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Call ID", "Email", "Transcript"},
		{"c1", "dan@y.edu", "not interested"},
		{"c2", "", "maybe next year"},
	}
	for i, row := range rows {
		axis, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", axis, &row))
	}
	require.NoError(t, f.SaveAs(input))
	require.NoError(t, f.Close())

	a, h := newAutomation(types.DecisionDeadEnd, Options{AutoUpdateSF: true})
	report := filepath.Join(dir, "report.xlsx")

	results, err := a.RunBatch(context.Background(), input, report)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, types.SourceBatch, results[0].Transcript.Source)
	assert.Equal(t, []string{"00QB:DEAD_END"}, h.directory.tasks)
	require.Len(t, h.summaries.sums, 1)
	assert.Equal(t, 2, h.summaries.sums[0].ByDecision[types.DecisionDeadEnd])

	_, err = os.Stat(report)
	assert.NoError(t, err)
}
