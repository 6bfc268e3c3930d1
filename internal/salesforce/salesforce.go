package salesforce

import (
	"context"
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

// Salesforce rejects long text fields past this size.
const maxDescription = 30000

const demoTaskID = "DEMO_TASK_001"

// Client talks to the Salesforce REST API. Without credentials it runs in
// demo mode and fabricates a prospect from the email address.
type Client struct {
	rest *restclient.Client
	demo bool
	now  func() time.Time
	log  *logger.Logger
}

type queryResult struct {
	TotalSize int      `json:"totalSize"`
	Records   []record `json:"records"`
}

type record struct {
	ID        string `json:"Id"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	Email     string `json:"Email"`
	Company   string `json:"Company"`
	Phone     string `json:"Phone"`
	Title     string `json:"Title"`
	Account   *struct {
		Name string `json:"Name"`
	} `json:"Account"`
}

type createResult struct {
	ID      string        `json:"id"`
	Success bool          `json:"success"`
	Errors  []interface{} `json:"errors"`
}

// New logs in with the OAuth2 username-password flow. The security token is
// appended to the password as Salesforce requires.
func New(ctx context.Context, cfg config.Salesforce, log *logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.New()
	}
	log = log.With("component", "salesforce")

	if !cfg.Configured() {
		if cfg.MissingAppCredentials() {
			log.Warn("Salesforce: SALESFORCE_CLIENT_ID and SALESFORCE_CLIENT_SECRET are required for login, falling back to DEMO mode")
		}
		log.Info("Salesforce: running in DEMO mode")
		return &Client{demo: true, now: time.Now, log: log}, nil
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  strings.TrimRight(cfg.LoginURL, "/") + "/services/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	token, err := oauthConfig.PasswordCredentialsToken(ctx, cfg.Username, cfg.Password+cfg.SecurityToken)
	if err != nil {
		return nil, fmt.Errorf("salesforce login: %w", err)
	}
	instanceURL, _ := token.Extra("instance_url").(string)
	if instanceURL == "" {
		return nil, fmt.Errorf("salesforce login: token response has no instance_url")
	}

	httpClient := oauthConfig.Client(ctx, token)
	httpClient.Timeout = 30 * time.Second

	base := strings.TrimRight(instanceURL, "/") + "/services/data/" + cfg.APIVersion
	log.WithField("instance_url", instanceURL).Info("connected to Salesforce")
	return &Client{rest: restclient.New(base, httpClient, log), now: time.Now, log: log}, nil
}

func (c *Client) Demo() bool { return c.demo }

// GetContactInfo looks the email up as a Contact, then as a Lead.
// It returns nil, nil when neither exists.
func (c *Client) GetContactInfo(ctx context.Context, email string) (*types.Prospect, error) {
	if c.demo {
		return demoProspect(email), nil
	}

	contact, err := c.queryOne(ctx, fmt.Sprintf(
		"SELECT Id, FirstName, LastName, Email, Account.Name, Phone, Title FROM Contact WHERE Email = '%s' LIMIT 1",
		escapeSOQL(email)))
	if err != nil {
		return nil, err
	}
	if contact != nil {
		p := toProspect(*contact)
		if contact.Account != nil {
			p.Company = contact.Account.Name
		}
		return &p, nil
	}

	lead, err := c.queryOne(ctx, fmt.Sprintf(
		"SELECT Id, FirstName, LastName, Email, Company, Phone, Title FROM Lead WHERE Email = '%s' LIMIT 1",
		escapeSOQL(email)))
	if err != nil {
		return nil, err
	}
	if lead != nil {
		p := toProspect(*lead)
		p.Company = lead.Company
		p.IsLead = true
		return &p, nil
	}
	return nil, nil
}

// LogCallActivity records the call as a completed Task and returns its ID.
func (c *Client) LogCallActivity(ctx context.Context, whoID, transcript string, cl types.Classification) (string, error) {
	if c.demo {
		c.log.WithField("who_id", whoID).Info("[DEMO] would log call activity")
		return demoTaskID, nil
	}

	if r := []rune(transcript); len(r) > maxDescription {
		transcript = string(r[:maxDescription])
	}
	task := map[string]string{
		"WhoId":        whoID,
		"Subject":      fmt.Sprintf("Call - %s", cl.Decision),
		"Status":       "Completed",
		"ActivityDate": c.now().Format("2006-01-02"),
		"Description": fmt.Sprintf("Call Outcome: %s\nConfidence: %d/10\nReasoning: %s\n\nNext Action: %s\n\nFull Transcript:\n%s",
			cl.Decision, cl.Confidence, cl.Reasoning, cl.NextAction, transcript),
	}

	var out createResult
	if err := c.rest.Do(ctx, http.MethodPost, "/sobjects/Task", nil, task, &out); err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}
	if !out.Success {
		return "", fmt.Errorf("create task: salesforce reported failure: %v", out.Errors)
	}

	c.log.WithField("task_id", out.ID).Info("logged call activity")
	return out.ID, nil
}

// UpdateLeadStatus sets Lead.Status. Contacts have no standard status field
// and are left unchanged.
func (c *Client) UpdateLeadStatus(ctx context.Context, id, status string, isLead bool) error {
	if c.demo {
		c.log.WithField("id", id).WithField("status", status).Info("[DEMO] would update status")
		return nil
	}
	if !isLead {
		c.log.WithField("id", id).Debug("contact status not updated")
		return nil
	}

	body := map[string]string{"Status": status}
	if err := c.rest.Do(ctx, http.MethodPatch, "/sobjects/Lead/"+url.PathEscape(id), nil, body, nil); err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	c.log.WithField("status", status).Info("updated lead status")
	return nil
}

func (c *Client) queryOne(ctx context.Context, soql string) (*record, error) {
	var out queryResult
	if err := c.rest.Do(ctx, http.MethodGet, "/query", url.Values{"q": {soql}}, nil, &out); err != nil {
		return nil, fmt.Errorf("soql query: %w", err)
	}
	if len(out.Records) == 0 {
		return nil, nil
	}
	return &out.Records[0], nil
}

func toProspect(r record) types.Prospect {
	return types.Prospect{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Title:     r.Title,
	}
}

// escapeSOQL escapes a value for use inside a single-quoted SOQL literal.
func escapeSOQL(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func demoProspect(email string) *types.Prospect {
	local := email
	if i := strings.Index(email, "@"); i >= 0 {
		local = email[:i]
	}
	if local == "" {
		local = "demo"
	}

	first, last := local, "User"
	if parts := strings.Split(local, "."); len(parts) > 1 {
		first, last = parts[0], parts[len(parts)-1]
	}

	return &types.Prospect{
		ID:        "DEMO_001",
		FirstName: titleCase(first),
		LastName:  titleCase(last),
		Email:     email,
		Company:   "Demo Company",
		Phone:     "555-0100",
		Title:     "Demo Contact",
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
