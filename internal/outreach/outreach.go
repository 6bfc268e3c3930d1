package outreach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"sdr-automation-go/internal/config"
	"sdr-automation-go/internal/logger"
	"sdr-automation-go/internal/restclient"
)

// ErrProspectNotFound is returned when no Outreach prospect has the email.
// Prospects are never created here.
var ErrProspectNotFound = errors.New("outreach prospect not found")

const demoRemovedCount = 2

// Client wraps the Outreach JSON:API. Without an API key it runs in demo mode
// and only logs what it would have done.
type Client struct {
	rest *restclient.Client
	demo bool
	log  *logger.Logger
}

type resource struct {
	Type          string                 `json:"type"`
	ID            json.Number            `json:"id,omitempty"`
	Attributes    map[string]interface{} `json:"attributes,omitempty"`
	Relationships map[string]relation    `json:"relationships,omitempty"`
}

type relation struct {
	Data ref `json:"data"`
}

type ref struct {
	Type string      `json:"type"`
	ID   json.Number `json:"id"`
}

type document struct {
	Data resource `json:"data"`
}

type listDocument struct {
	Data []resource `json:"data"`
}

func New(cfg config.Outreach, log *logger.Logger) *Client {
	if log == nil {
		log = logger.New()
	}
	log = log.With("component", "outreach")

	c := &Client{demo: cfg.APIKey == "", log: log}
	if c.demo {
		log.Info("Outreach: running in DEMO mode")
		return c
	}

	httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.APIKey,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = 30 * time.Second

	c.rest = restclient.New(cfg.APIURL, httpClient, log)
	c.rest.ContentType = "application/vnd.api+json"
	return c
}

func (c *Client) Demo() bool { return c.demo }

// ScheduleEmail creates a one-off mailing for the prospect at sendAt.
func (c *Client) ScheduleEmail(ctx context.Context, email, subject, body string, sendAt time.Time) error {
	if c.demo {
		c.log.WithField("to", email).WithField("send_at", sendAt.Format(time.RFC3339)).Info("[DEMO] would schedule email")
		return nil
	}

	prospectID, err := c.findProspect(ctx, email)
	if err != nil {
		return err
	}

	mailing := document{Data: resource{
		Type: "mailing",
		Attributes: map[string]interface{}{
			"subject":     subject,
			"bodyHtml":    body,
			"scheduledAt": sendAt.Format(time.RFC3339),
			"mailingType": "one_off",
		},
		Relationships: map[string]relation{
			"prospect": {Data: ref{Type: "prospect", ID: prospectID}},
		},
	}}
	if err := c.rest.Do(ctx, http.MethodPost, "/mailings", nil, mailing, nil); err != nil {
		return fmt.Errorf("schedule mailing: %w", err)
	}

	c.log.WithField("to", email).WithField("send_at", sendAt.Format(time.RFC3339)).Info("email scheduled in Outreach")
	return nil
}

// AddToSequence enrolls the prospect in the sequence with the given name.
func (c *Client) AddToSequence(ctx context.Context, email, sequenceName string) error {
	if c.demo {
		c.log.WithField("prospect", email).WithField("sequence", sequenceName).Info("[DEMO] would add to sequence")
		return nil
	}

	prospectID, err := c.findProspect(ctx, email)
	if err != nil {
		return err
	}
	sequenceID, err := c.findSequence(ctx, sequenceName)
	if err != nil {
		return err
	}

	state := document{Data: resource{
		Type: "sequenceState",
		Relationships: map[string]relation{
			"prospect": {Data: ref{Type: "prospect", ID: prospectID}},
			"sequence": {Data: ref{Type: "sequence", ID: sequenceID}},
		},
	}}
	if err := c.rest.Do(ctx, http.MethodPost, "/sequenceStates", nil, state, nil); err != nil {
		return fmt.Errorf("create sequence state: %w", err)
	}

	c.log.WithField("sequence", sequenceName).Info("added to sequence")
	return nil
}

// RemoveFromAllSequences pauses every active sequence state of the prospect
// and returns how many were paused.
func (c *Client) RemoveFromAllSequences(ctx context.Context, email string) (int, error) {
	if c.demo {
		c.log.WithField("prospect", email).Info("[DEMO] would remove from all sequences")
		return demoRemovedCount, nil
	}

	prospectID, err := c.findProspect(ctx, email)
	if err != nil {
		return 0, err
	}

	var states listDocument
	q := url.Values{
		"filter[prospect][id]": {prospectID.String()},
		"filter[state]":        {"active"},
	}
	if err := c.rest.Do(ctx, http.MethodGet, "/sequenceStates", q, nil, &states); err != nil {
		return 0, fmt.Errorf("list sequence states: %w", err)
	}

	paused := 0
	for _, s := range states.Data {
		if err := c.pauseSequenceState(ctx, s.ID); err != nil {
			c.log.WithError(err).WithField("sequence_state", s.ID.String()).Warn("failed to pause sequence state")
			continue
		}
		paused++
	}

	c.log.WithField("count", paused).Info("removed from sequences")
	return paused, nil
}

func (c *Client) findProspect(ctx context.Context, email string) (json.Number, error) {
	var out listDocument
	if err := c.rest.Do(ctx, http.MethodGet, "/prospects", url.Values{"filter[emails]": {email}}, nil, &out); err != nil {
		return "", fmt.Errorf("find prospect: %w", err)
	}
	if len(out.Data) == 0 {
		return "", fmt.Errorf("%w: %s", ErrProspectNotFound, email)
	}
	return out.Data[0].ID, nil
}

func (c *Client) findSequence(ctx context.Context, name string) (json.Number, error) {
	var out listDocument
	if err := c.rest.Do(ctx, http.MethodGet, "/sequences", url.Values{"filter[name]": {name}}, nil, &out); err != nil {
		return "", fmt.Errorf("find sequence: %w", err)
	}
	if len(out.Data) == 0 {
		return "", fmt.Errorf("could not find sequence: %s", name)
	}
	return out.Data[0].ID, nil
}

func (c *Client) pauseSequenceState(ctx context.Context, id json.Number) error {
	update := document{Data: resource{
		Type:       "sequenceState",
		ID:         id,
		Attributes: map[string]interface{}{"state": "paused"},
	}}
	return c.rest.Do(ctx, http.MethodPatch, "/sequenceStates/"+id.String(), nil, update, nil)
}
