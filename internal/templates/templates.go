package templates

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
	_ "time/tzdata"

	"sdr-automation-go/internal/config"
	"sdr-automation-go/internal/types"
)

var contentBlocks = map[string]string{
	"savings":        "Schools like yours typically save 35-45% on their student-facing tech stack by consolidating redundant systems.",
	"engagement":     "Our clients see an average 80% increase in student engagement when they streamline access to resources.",
	"implementation": "Implementation typically takes 6-8 weeks, and we handle the heavy lifting of data migration and integrations.",
	"case_study":     "University of Pacific went from 28 systems down to 5, saving $400K annually while doubling student app engagement.",
	"integration":    "Pathify integrates seamlessly with Canvas, Workday, Slate, and 200+ other common campus systems.",
}

const caseStudyLine = "Here's a case study from University of Pacific that shows the impact: [LINK TO CASE STUDY]"

var interestedTmpl = template.Must(template.New("interested").Parse(`Hi {{.FirstName}},

{{.Opener}}

{{.Content}}

I'd love to show you how we've helped similar institutions. Find a time that works for you here: {{.Sender.CalendarLink}}

Best,
{{.Sender.Name}}
{{.Sender.Title}}
{{.Sender.Company}}
{{.Sender.Phone}}
`))

var warmTmpl = template.Must(template.New("warm").Parse(`Hi {{.FirstName}},

Thanks for taking the time to chat earlier. I know you mentioned you're not looking at this right now, but I wanted to share a quick resource in case it's helpful down the road.

{{.CaseStudy}}

No pressure at all - just wanted to make sure you had this. Feel free to reach out anytime if you'd like to chat further.

Best,
{{.Sender.Name}}
{{.Sender.Title}}
`))

type emailData struct {
	FirstName string
	Opener    string
	Content   string
	CaseStudy string
	Sender    config.Sender
}

// Generator renders follow-up emails for INTERESTED and WARM prospects.
type Generator struct {
	sender   config.Sender
	loc      *time.Location
	sendHour int
	sendMin  int
	now      func() time.Time
}

func NewGenerator(sender config.Sender, sched config.Schedule) (*Generator, error) {
	loc, err := time.LoadLocation(sched.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", sched.Timezone, err)
	}
	h, m, err := config.ParseClock(sched.DefaultEmailTime)
	if err != nil {
		return nil, err
	}
	return &Generator{sender: sender, loc: loc, sendHour: h, sendMin: m, now: time.Now}, nil
}

// SetClock overrides the time source.
func (g *Generator) SetClock(now func() time.Time) { g.now = now }

func (g *Generator) Interested(p types.Prospect, c types.Classification) (types.Email, error) {
	topic := "our conversation"
	if len(c.EmailTopics) > 0 {
		topic = c.EmailTopics[0]
	}

	body, err := render(interestedTmpl, emailData{
		FirstName: firstName(p),
		Opener:    opener(c.Reasoning),
		Content:   relevantContent(c.EmailTopics),
		Sender:    g.sender,
	})
	if err != nil {
		return types.Email{}, err
	}

	return types.Email{
		Subject: "Following up on " + topic,
		Body:    body,
		Kind:    types.EmailInterested,
		SendAt:  g.SendTime(1),
	}, nil
}

func (g *Generator) Warm(p types.Prospect, c types.Classification) (types.Email, error) {
	company := p.Company
	if company == "" {
		company = "your institution"
	}

	body, err := render(warmTmpl, emailData{
		FirstName: firstName(p),
		CaseStudy: caseStudyLine,
		Sender:    g.sender,
	})
	if err != nil {
		return types.Email{}, err
	}

	return types.Email{
		Subject: "Resource for " + company,
		Body:    body,
		Kind:    types.EmailWarm,
		SendAt:  g.SendTime(2),
	}, nil
}

// SendTime is daysAhead days from now at the configured wall-clock time in
// the configured timezone.
func (g *Generator) SendTime(daysAhead int) time.Time {
	d := g.now().In(g.loc).AddDate(0, 0, daysAhead)
	return time.Date(d.Year(), d.Month(), d.Day(), g.sendHour, g.sendMin, 0, 0, g.loc)
}

func render(t *template.Template, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func firstName(p types.Prospect) string {
	if p.FirstName == "" {
		return "there"
	}
	return p.FirstName
}

func opener(reasoning string) string {
	r := strings.ToLower(reasoning)
	switch {
	case containsAny(r, "budget", "savings"):
		return "Great speaking with you about how Pathify can help reduce costs while improving the student experience."
	case containsAny(r, "student", "engagement"):
		return "I really enjoyed our conversation about boosting student engagement on campus."
	case strings.Contains(r, "timeline"):
		return "Thanks for chatting today! I know you mentioned looking at this for the upcoming semester."
	default:
		return "Thanks for taking the time to speak with me today about Pathify."
	}
}

func relevantContent(topics []string) string {
	anyTopic := func(keys ...string) bool {
		for _, t := range topics {
			if containsAny(strings.ToLower(t), keys...) {
				return true
			}
		}
		return false
	}

	switch {
	case anyTopic("budget", "cost", "savings"):
		return contentBlocks["savings"] + "\n\n" + contentBlocks["case_study"]
	case anyTopic("student", "engagement"):
		return contentBlocks["engagement"] + "\n\n" + contentBlocks["case_study"]
	case anyTopic("implement", "timeline"):
		return contentBlocks["implementation"]
	case anyTopic("integrat", "canvas", "lms"):
		return contentBlocks["integration"]
	default:
		return contentBlocks["case_study"]
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
