package orum

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"sdr-automation-go/internal/config"
	"sdr-automation-go/internal/logger"
	"sdr-automation-go/internal/restclient"
	"sdr-automation-go/internal/types"
)

// ErrCallNotFound is returned when Orum has no call with the requested id.
var ErrCallNotFound = errors.New("orum call not found")

const demoTranscript = `SDR: Hi, this is a quick call about your student portal. Do you have a minute?
Prospect: Sure, a minute.
SDR: We help schools consolidate their student-facing apps into one portal.
Prospect: We are looking at our budget for next year. Send me some pricing and a case study.`

// Client pulls call transcripts from the Orum dialer.
type Client struct {
	rest *restclient.Client
	demo bool
	now  func() time.Time
	log  *logger.Logger
}

type callRecord struct {
	ID            string `json:"id"`
	Transcript    string `json:"transcript"`
	ProspectEmail string `json:"prospect_email"`
}

type listResponse struct {
	Data []callRecord `json:"data"`
}

type itemResponse struct {
	Data callRecord `json:"data"`
}

func New(cfg config.Orum, log *logger.Logger) *Client {
	if log == nil {
		log = logger.New()
	}
	log = log.With("component", "orum")

	c := &Client{demo: cfg.APIKey == "", now: time.Now, log: log}
	if c.demo {
		log.Info("Orum: running in DEMO mode")
		return c
	}

	httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.APIKey,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = 30 * time.Second
	c.rest = restclient.New(cfg.APIURL, httpClient, log)
	return c
}

func (c *Client) Demo() bool { return c.demo }

// RecentTranscripts returns calls completed within window of now. Calls with
// an empty transcript are dropped.
func (c *Client) RecentTranscripts(ctx context.Context, window time.Duration) ([]types.Transcript, error) {
	if c.demo {
		c.log.Debug("[DEMO] no new transcripts")
		return nil, nil
	}

	since := c.now().Add(-window).UTC().Format(time.RFC3339)
	var out listResponse
	if err := c.rest.Do(ctx, http.MethodGet, "/transcripts", url.Values{"since": {since}}, nil, &out); err != nil {
		return nil, fmt.Errorf("list orum transcripts: %w", err)
	}

	transcripts := make([]types.Transcript, 0, len(out.Data))
	for _, r := range out.Data {
		if strings.TrimSpace(r.Transcript) == "" {
			c.log.WithField("call_id", r.ID).Debug("skipping call without transcript")
			continue
		}
		transcripts = append(transcripts, r.toTranscript())
	}

	c.log.WithField("count", len(transcripts)).WithField("since", since).Info("fetched transcripts")
	return transcripts, nil
}

// TranscriptByID fetches a single call.
func (c *Client) TranscriptByID(ctx context.Context, id string) (types.Transcript, error) {
	if c.demo {
		return types.Transcript{ID: id, Text: demoTranscript, Source: types.SourceOrum}, nil
	}

	var out itemResponse
	if err := c.rest.Do(ctx, http.MethodGet, "/transcripts/"+url.PathEscape(id), nil, nil, &out); err != nil {
		if restclient.IsNotFound(err) {
			return types.Transcript{}, fmt.Errorf("%w: %s", ErrCallNotFound, id)
		}
		return types.Transcript{}, fmt.Errorf("get orum transcript %s: %w", id, err)
	}
	if strings.TrimSpace(out.Data.Transcript) == "" {
		return types.Transcript{}, fmt.Errorf("orum call %s has no transcript", id)
	}
	return out.Data.toTranscript(), nil
}

func (r callRecord) toTranscript() types.Transcript {
	return types.Transcript{
		ID:            r.ID,
		Text:          r.Transcript,
		ProspectEmail: r.ProspectEmail,
		Source:        types.SourceOrum,
	}
}
