package qbo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// IntuitAuthURL is the Intuit authorization url
const IntuitAuthURL = "https://appcenter.intuit.com/connect/oauth2"

// IntuitTokenURL is the Intuit token exchange url
const IntuitTokenURL = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"

// SandboxAPIURL is the base url of the QuickBooks Online sandbox api
const SandboxAPIURL = "https://sandbox-quickbooks.api.intuit.com/"

// ProductionAPIURL is the base url of the QuickBooks Online api
const ProductionAPIURL = "https://quickbooks.api.intuit.com/"

// Environments supported by Intuit
const (
	EnvironmentSandbox    = "sandbox"
	EnvironmentProduction = "production"
)

// Scopes
const (
	ScopeAccounting = "com.intuit.quickbooks.accounting"
	ScopeOpenID     = "openid"
)

// DefaultScopes are requested when AuthURL is called without scopes
var DefaultScopes = []string{ScopeAccounting, ScopeOpenID}

// DefaultAPITimeout is the timeout for authenticated api calls. The
// sandbox api is slow to answer the first call after a consent, so
// this is generous.
const DefaultAPITimeout = 60 * time.Second

// DefaultExchangeTimeout bounds the call to the token endpoint
const DefaultExchangeTimeout = 30 * time.Second

// Config holds the settings for a Client. The url fields are optional
// and default to the Intuit endpoints for Environment.
type Config struct {
	ClientID        string
	ClientSecret    string
	RedirectURL     string
	Environment     string
	AuthURL         string
	TokenURL        string
	APIURL          string
	ExchangeTimeout time.Duration
}

// Client runs the QuickBooks Online OAuth2 authorization code flow and
// makes authenticated api calls with the tokens it obtains.
//
// The most recently exchanged token is kept and can be read with
// Current, but api calls always take the token they should use as a
// parameter so that concurrent flows do not share credentials.
type Client struct {
	oauth           *oauth2.Config
	environment     string
	apiURL          string
	exchangeTimeout time.Duration
	locker          sync.Mutex
	current         *Token
}

// NewClient returns a new Client after checking cfg
func NewClient(cfg Config) (*Client, error) {

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("client id or secret is empty")
	}
	if _, err := url.ParseRequestURI(cfg.RedirectURL); err != nil {
		return nil, errors.New("redirect url invalid")
	}

	apiURL := cfg.APIURL
	switch cfg.Environment {
	case EnvironmentSandbox:
		if apiURL == "" {
			apiURL = SandboxAPIURL
		}
	case EnvironmentProduction:
		if apiURL == "" {
			apiURL = ProductionAPIURL
		}
	default:
		return nil, fmt.Errorf("environment %q should be %s or %s", cfg.Environment, EnvironmentSandbox, EnvironmentProduction)
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}

	if cfg.AuthURL == "" {
		cfg.AuthURL = IntuitAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = IntuitTokenURL
	}
	if cfg.ExchangeTimeout <= 0 {
		cfg.ExchangeTimeout = DefaultExchangeTimeout
	}

	c := &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       DefaultScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		environment:     cfg.Environment,
		apiURL:          apiURL,
		exchangeTimeout: cfg.ExchangeTimeout,
	}
	return c, nil
}

// Environment returns the Intuit environment the client talks to
func (c *Client) Environment() string {
	return c.environment
}

// AuthURL returns the authorization url which is the beginning of the
// authorization process. No network call is made.
func (c *Client) AuthURL(state string, scopes ...string) string {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	conf := oauth2.Config{
		ClientID:    c.oauth.ClientID,
		RedirectURL: c.oauth.RedirectURL,
		Endpoint:    c.oauth.Endpoint,
		Scopes:      scopes,
	}
	return conf.AuthCodeURL(state)
}

// Exchange swaps the authorization code in callbackURL, the url Intuit
// redirected the browser to, for an access and refresh token. The
// realm id is also read from callbackURL. All failures are returned as
// an *ExchangeError.
func (c *Client) Exchange(ctx context.Context, callbackURL string) (*Token, error) {

	u, err := url.Parse(callbackURL)
	if err != nil {
		return nil, &ExchangeError{Err: fmt.Errorf("callback url invalid: %w", err)}
	}
	q := u.Query()
	if reason := q.Get("error"); reason != "" {
		return nil, &ExchangeError{Err: fmt.Errorf("authorization refused: %s %s", reason, q.Get("error_description"))}
	}
	code := strings.TrimSpace(q.Get("code"))
	if code == "" {
		return nil, &ExchangeError{Err: errors.New("no code in callback url")}
	}
	realmID := strings.TrimSpace(q.Get("realmId"))
	if realmID == "" {
		return nil, &ExchangeError{Err: errors.New("no realmId in callback url")}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
		Timeout: c.exchangeTimeout,
	})
	ot, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			err = &HTTPClientError{re.Response.StatusCode, string(re.Body)}
		}
		return nil, &ExchangeError{Err: err}
	}
	if ot.AccessToken == "" || ot.RefreshToken == "" {
		return nil, &ExchangeError{Err: errors.New("empty response received from server")}
	}

	t := &Token{Token: ot, RealmID: realmID}
	c.locker.Lock()
	c.current = t
	c.locker.Unlock()
	log.WithField("realm_id", realmID).Debugf("token exchanged, expiry %s", ot.Expiry)

	return t, nil
}

// Current returns the token from the most recent successful Exchange,
// or nil
func (c *Client) Current() *Token {
	c.locker.Lock()
	defer c.locker.Unlock()
	return c.current
}

// Get makes a bearer authenticated GET request for path, relative to
// the api base url, using tok. A timeout of zero means
// DefaultAPITimeout. The token is used as is and never refreshed.
// Failures are returned as an *APICallError.
func (c *Client) Get(ctx context.Context, tok *Token, path string, timeout time.Duration) ([]byte, error) {

	if tok == nil || tok.Token == nil || tok.AccessToken == "" {
		return nil, &APICallError{Path: path, Err: errors.New("no access token")}
	}
	if timeout <= 0 {
		timeout = DefaultAPITimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.apiURL+strings.TrimPrefix(path, "/"), nil)
	if err != nil {
		return nil, &APICallError{Path: path, Err: err}
	}
	req.Header.Add("Accept", "application/json")

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok.Token))
	client.Timeout = timeout

	resp, err := client.Do(req)
	if err != nil {
		return nil, &APICallError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APICallError{Path: path, Err: fmt.Errorf("body read error: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APICallError{Path: path, Err: &HTTPClientError{resp.StatusCode, string(body)}}
	}
	return body, nil
}
