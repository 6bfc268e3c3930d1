package classifier

import (
	"regexp"
	"strconv"
	"strings"

	"sdr-automation-go/internal/types"
)

const defaultConfidence = 5

var (
	decisionRe = regexp.MustCompile(`DECISION[:\s*]+(\w+)`)
	digitsRe   = regexp.MustCompile(`\d+`)
)

// Parse turns the model's free-text analysis into a Classification.
// Anything it cannot recognise leaves the decision UNKNOWN.
func Parse(analysis string) types.Classification {
	analysis = strings.ReplaceAll(analysis, "\r\n", "\n")

	c := types.Classification{
		Decision:    types.DecisionUnknown,
		Confidence:  defaultConfidence,
		RawAnalysis: analysis,
	}

	// first DECISION label that maps onto a known category wins
	for _, m := range decisionRe.FindAllStringSubmatch(strings.ToUpper(analysis), -1) {
		if d := types.ParseDecision(m[1]); d != types.DecisionUnknown && d != types.DecisionError {
			c.Decision = d
			break
		}
	}
	c.NextAction = types.NextActionFor(c.Decision)

	if line, ok := sectionLine(analysis, "CONFIDENCE:"); ok {
		if n := digitsRe.FindString(line); n != "" {
			v, _ := strconv.Atoi(n)
			c.Confidence = clamp(v, 0, 10)
		}
	}

	if s, ok := section(analysis, "REASONING:"); ok {
		c.Reasoning = s
	}
	if s, ok := section(analysis, "INITIAL POSITION:"); ok {
		c.InitialPosition = s
	}
	if s, ok := section(analysis, "FINAL SENTIMENT:"); ok {
		c.FinalSentiment = s
	}
	if s, ok := section(analysis, "COMMITMENT LEVEL:"); ok {
		c.CommitmentLevel = s
	}
	if s, ok := section(analysis, "OBJECTIONS RAISED:"); ok {
		c.Objections = listItems(s)
	}

	if c.Decision == types.DecisionInterested || c.Decision == types.DecisionWarm {
		if s, ok := section(analysis, "RECOMMENDED EMAIL TOPICS:"); ok {
			c.EmailTopics = listItems(s)
		}
	}

	return c
}

// section returns the text after header up to the next blank line.
func section(text, header string) (string, bool) {
	i := strings.Index(text, header)
	if i < 0 {
		return "", false
	}
	rest := text[i+len(header):]
	if end := strings.Index(rest, "\n\n"); end >= 0 {
		rest = rest[:end]
	}
	return strings.Trim(rest, " *\t\n"), true
}

// sectionLine returns the remainder of the line holding header.
func sectionLine(text, header string) (string, bool) {
	i := strings.Index(text, header)
	if i < 0 {
		return "", false
	}
	rest := text[i+len(header):]
	if end := strings.Index(rest, "\n"); end >= 0 {
		rest = rest[:end]
	}
	return rest, true
}

func listItems(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		item := strings.TrimSpace(strings.Trim(line, "-*• \t"))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
