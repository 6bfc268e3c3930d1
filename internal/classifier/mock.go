package classifier

import (
	"context"
	"fmt"
	"strings"

	"sdr-automation-go/internal/types"
)

// Mock is a deterministic offline provider enabled with USE_MOCK_LLM=true.
// It answers in the same numbered format a real model is asked for, choosing
// the decision from phrases in the closing lines of the transcript first.
type Mock struct{}

var mockRules = []struct {
	decision types.Decision
	phrases  []string
}{
	{types.DecisionDeadEnd, []string{"i'll pass", "not interested", "no thanks", "no thank you", "just signed", "take me off", "don't call"}},
	{types.DecisionInterested, []string{"send me", "send over", "book a", "schedule", "next steps", "pricing", "case stud", "set up a meeting"}},
	{types.DecisionNurture, []string{"reach out in", "next year", "next quarter", "under contract", "budget freeze", "not right now"}},
}

var mockTopics = []struct {
	topic    string
	keywords []string
}{
	{"Cost savings", []string{"cost", "budget", "save", "saving"}},
	{"Student engagement", []string{"student", "engagement"}},
	{"Implementation timeline", []string{"implement", "timeline"}},
	{"Integrations", []string{"canvas", "integrat", "lms"}},
}

func (Mock) Name() string { return "mock" }

func (Mock) Ping(context.Context) error { return nil }

func (Mock) Complete(_ context.Context, prompt string) (string, error) {
	transcript := promptTranscript(prompt)
	decision, evidence := mockDecide(transcript)

	var topics []string
	lower := strings.ToLower(transcript)
	for _, t := range mockTopics {
		for _, k := range t.keywords {
			if strings.Contains(lower, k) {
				topics = append(topics, "- "+t.topic)
				break
			}
		}
	}
	if len(topics) == 0 {
		topics = []string{"- Follow up on conversation"}
	}

	return fmt.Sprintf(`1. INITIAL POSITION: Prospect answered the call.

5. FINAL SENTIMENT: Closing exchange contained %q.

8. DECISION: %s

9. CONFIDENCE: 7

10. REASONING: Mock analysis based on the closing lines of the call (%s).

11. RECOMMENDED EMAIL TOPICS:
%s
`, evidence, decision, evidence, strings.Join(topics, "\n")), nil
}

func mockDecide(transcript string) (types.Decision, string) {
	lines := nonEmptyLines(transcript)
	tail := lines
	if len(tail) > 3 {
		tail = tail[len(tail)-3:]
	}

	for _, scope := range []string{strings.Join(tail, "\n"), strings.Join(lines, "\n")} {
		lower := strings.ToLower(scope)
		for _, r := range mockRules {
			for _, p := range r.phrases {
				if strings.Contains(lower, p) {
					return r.decision, p
				}
			}
		}
	}
	return types.DecisionWarm, "no explicit commitment"
}

// promptTranscript recovers the transcript embedded by BuildPrompt; other
// prompts are treated as the transcript itself.
func promptTranscript(prompt string) string {
	const start = "CALL TRANSCRIPT:\n"
	const end = "\n\nPlease analyze this call"
	i := strings.Index(prompt, start)
	if i < 0 {
		return prompt
	}
	rest := prompt[i+len(start):]
	if j := strings.Index(rest, end); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
