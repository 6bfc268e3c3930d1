package types

import (
	"strings"
	"time"
)

type Decision string

const (
	DecisionInterested Decision = "INTERESTED"
	DecisionWarm       Decision = "WARM"
	DecisionNurture    Decision = "NURTURE"
	DecisionDeadEnd    Decision = "DEAD_END"
	DecisionError      Decision = "ERROR"
	DecisionUnknown    Decision = "UNKNOWN"
)

// Next actions recorded on a classification and used as dispatch keys.
const (
	ActionSendEmail    = "send_email"
	ActionNurture      = "add_to_nurture_sequence"
	ActionDisqualify   = "mark_disqualified"
	ActionManualReview = "manual_review"
)

var nextActions = map[Decision]string{
	DecisionInterested: ActionSendEmail,
	DecisionWarm:       ActionSendEmail,
	DecisionNurture:    ActionNurture,
	DecisionDeadEnd:    ActionDisqualify,
	DecisionError:      ActionManualReview,
}

// NextActionFor returns the action keyed by d, or "" for UNKNOWN.
func NextActionFor(d Decision) string {
	return nextActions[d]
}

// ParseDecision maps free text onto a Decision using the same substring rules
// the classifier applies to model output.
func ParseDecision(s string) Decision {
	u := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case strings.Contains(u, "INTERESTED"):
		return DecisionInterested
	case strings.Contains(u, "WARM"):
		return DecisionWarm
	case strings.Contains(u, "NURTURE"):
		return DecisionNurture
	case strings.Contains(u, "DEAD"):
		return DecisionDeadEnd
	case u == string(DecisionError):
		return DecisionError
	default:
		return DecisionUnknown
	}
}

func (d Decision) Emoji() string {
	switch d {
	case DecisionInterested:
		return "🔥"
	case DecisionWarm:
		return "👍"
	case DecisionNurture:
		return "📅"
	case DecisionDeadEnd:
		return "❌"
	case DecisionError:
		return "⚠️"
	default:
		return "❓"
	}
}

type Classification struct {
	Decision        Decision `json:"decision"`
	Confidence      int      `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
	InitialPosition string   `json:"initial_position,omitempty"`
	Objections      []string `json:"objections,omitempty"`
	FinalSentiment  string   `json:"final_sentiment,omitempty"`
	CommitmentLevel string   `json:"commitment_level,omitempty"`
	NextAction      string   `json:"next_action"`
	EmailTopics     []string `json:"email_topics,omitempty"`
	RawAnalysis     string   `json:"raw_analysis,omitempty"`
}

const (
	SourceFile  = "file"
	SourceOrum  = "orum"
	SourceAudio = "audio"
	SourceBatch = "batch"
)

type Transcript struct {
	ID            string `json:"id"`
	Text          string `json:"transcript"`
	ProspectEmail string `json:"prospect_email,omitempty"`
	Source        string `json:"source,omitempty"`
}

type Prospect struct {
	ID        string `json:"id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email"`
	Company   string `json:"company,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Title     string `json:"title,omitempty"`
	IsLead    bool   `json:"is_lead,omitempty"`
}

func (p Prospect) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

const (
	EmailInterested = "interested"
	EmailWarm       = "warm"
)

type Email struct {
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Kind    string    `json:"type"`
	SendAt  time.Time `json:"send_time"`
}

// Outcome records what the dispatcher did for one call.
type Outcome struct {
	Action        string `json:"action"`
	Email         *Email `json:"email,omitempty"`
	Scheduled     bool   `json:"scheduled,omitempty"`
	Drafted       bool   `json:"drafted,omitempty"`
	AddedSequence string `json:"added_sequence,omitempty"`
	RemovedCount  int    `json:"removed_count,omitempty"`
	Skipped       string `json:"skipped,omitempty"`
	Error         string `json:"error,omitempty"`
}

type CallResult struct {
	CallID         string         `json:"call_id"`
	Transcript     Transcript     `json:"transcript"`
	Classification Classification `json:"classification"`
	Prospect       *Prospect      `json:"prospect,omitempty"`
	Outcome        Outcome        `json:"outcome"`
	TaskID         string         `json:"task_id,omitempty"`
	Error          string         `json:"error,omitempty"`
	DurationMs     int64          `json:"duration_ms"`
}
