// Package flow provides the http handlers that connect a QuickBooks
// Online company: redirect the user to Intuit, exchange the returned
// code for tokens, store them, and confirm the connection with one api
// call.
package flow

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/rorycl/QBOConnect/qbo"
	"github.com/rorycl/QBOConnect/store"
	"github.com/sirupsen/logrus"
)

// DefaultState is the anti-forgery state sent with the authorization
// request and expected back on the callback
const DefaultState = "security_state_token"

// Failure messages for each stage of the callback
const (
	StateMismatchMessage = "Callback state does not match. Please start again at /connect."
	ExchangeErrorMessage = "Error connecting to QuickBooks. Check Client/Secret/URI."
	PersistErrorMessage  = "Error saving tokens to database. Check DB table structure/credentials."
	APICallErrorMessage  = "Error retrieving company information from QuickBooks. Check QBO scope permissions."
)

// Provider is the QuickBooks Online side of the flow
type Provider interface {
	AuthURL(state string, scopes ...string) string
	Exchange(ctx context.Context, callbackURL string) (*qbo.Token, error)
	CompanyInfo(ctx context.Context, tok *qbo.Token, timeout time.Duration) (*qbo.CompanyInfo, error)
}

// Recorder stores the tokens of each successful exchange
type Recorder interface {
	Insert(ctx context.Context, accessToken, refreshToken, realmID string) (*store.Record, error)
}

// Options configure a Controller; zero values take defaults
type Options struct {
	Environment string
	State       string
	Scopes      []string
	APITimeout  time.Duration
	Logger      logrus.FieldLogger
}

// Controller sequences the connection flow
type Controller struct {
	provider    Provider
	recorder    Recorder
	environment string
	state       string
	scopes      []string
	apiTimeout  time.Duration
	log         logrus.FieldLogger
}

// New returns a Controller
func New(p Provider, r Recorder, o Options) *Controller {
	c := &Controller{
		provider:    p,
		recorder:    r,
		environment: o.Environment,
		state:       o.State,
		scopes:      o.Scopes,
		apiTimeout:  o.APITimeout,
		log:         o.Logger,
	}
	if c.environment == "" {
		c.environment = qbo.EnvironmentSandbox
	}
	if c.state == "" {
		c.state = DefaultState
	}
	if len(c.scopes) == 0 {
		c.scopes = qbo.DefaultScopes
	}
	if c.apiTimeout <= 0 {
		c.apiTimeout = qbo.DefaultAPITimeout
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	return c
}

// HandleHome reports the configured environment and links to /connect
func (c *Controller) HandleHome(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, "<html><title>QuickBooks connect</title><body>")
	fmt.Fprintf(w, "<p>QBO Client Initialized. Environment: <strong>%s</strong></p>",
		html.EscapeString(c.environment))
	fmt.Fprint(w, `<p><a href="/connect">Click here to Connect to QuickBooks</a></p>`)
	fmt.Fprint(w, "</body></html>")
}

// HandleConnect redirects the browser to the Intuit authorization page
func (c *Controller) HandleConnect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, c.provider.AuthURL(c.state, c.scopes...), http.StatusFound)
}

// HandleCallback is the redirect target of the authorization. The code
// is exchanged for tokens, the tokens are stored and then used to
// fetch the company information. Each stage only runs if the previous
// one succeeded; a stored record is kept even if the api call fails.
func (c *Controller) HandleCallback(w http.ResponseWriter, r *http.Request) {

	if state := r.URL.Query().Get("state"); state != c.state {
		c.log.WithField("stage", "state").Warnf("callback state %q != saved state", state)
		http.Error(w, StateMismatchMessage, http.StatusForbidden)
		return
	}

	// stages run to completion even if the browser goes away
	ctx := context.WithoutCancel(r.Context())

	tok, err := c.provider.Exchange(ctx, r.URL.String())
	if err != nil {
		c.log.WithField("stage", "exchange").Errorf("token exchange error: %s", err)
		http.Error(w, ExchangeErrorMessage, http.StatusInternalServerError)
		return
	}
	logger := c.log.WithField("realm_id", tok.RealmID)

	rec, err := c.recorder.Insert(ctx, tok.AccessToken, tok.RefreshToken, tok.RealmID)
	if err != nil {
		logger.WithField("stage", "persist").Errorf("database insert error: %s", err)
		http.Error(w, PersistErrorMessage, http.StatusInternalServerError)
		return
	}
	logger.WithField("record_id", rec.ID).Info("QBO tokens saved to database")

	info, err := c.provider.CompanyInfo(ctx, tok, c.apiTimeout)
	if err != nil {
		entry := logger.WithField("stage", "api")
		var ae *qbo.APICallError
		if errors.As(err, &ae) && ae.Timeout() {
			entry = entry.WithField("timeout", c.apiTimeout)
		}
		entry.Errorf("api call error: %s", err)
		http.Error(w, APICallErrorMessage, http.StatusInternalServerError)
		return
	}
	logger.WithField("company", info.CompanyName).Info("connection verified")

	fmt.Fprint(w, "<html><title>QuickBooks connected</title><body>")
	fmt.Fprint(w, "<h1>API Call Success!</h1>")
	fmt.Fprint(w, "<p>Tokens saved to cloud database and API connection verified.</p>")
	fmt.Fprintf(w, "<p>Connected to QBO Company: <strong>%s</strong></p>",
		html.EscapeString(info.CompanyName))
	fmt.Fprint(w, "</body></html>")
}

// HandleLivez reports that the server is up; it makes no calls
func (c *Controller) HandleLivez(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}
