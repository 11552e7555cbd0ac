package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"guide-builder/core/errors"
	"guide-builder/feature/guide/models"
)

// Credential is a bearer token and its deadline.
type Credential struct {
	Token   string
	Expires time.Time
}

// TokenSource hands out the credential for catalog calls.
type TokenSource interface {
	Token(ctx context.Context) (Credential, error)
}

// Invalidator is implemented by token sources that can drop a rejected credential.
type Invalidator interface {
	Invalidate()
}

// StaticToken is a fixed, pre-issued credential.
type StaticToken struct {
	Value   string
	Expires time.Time
}

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (Credential, error) {
	if s.Value == "" {
		return Credential{}, errors.Mark(errors.New("no catalog token configured"), models.ErrAuth)
	}
	return Credential{Token: s.Value, Expires: s.Expires}, nil
}

// tokenRefreshInterval is the minimum delay between two logins.
const tokenRefreshInterval = time.Minute

// tokenLifetime is how long an issued token stays valid.
const tokenLifetime = 24 * time.Hour

// PasswordTokenSource logs in with a username and password and caches the token.
// It refreshes a token within a minute of expiry and never logs in more than once per minute.
type PasswordTokenSource struct {
	baseURL    string
	username   string
	password   string
	userAgent  string
	httpClient *http.Client
	now        func() time.Time

	mu          sync.Mutex
	current     Credential
	lastRefresh time.Time
	invalid     bool
}

// NewPasswordTokenSource creates a token source logging in against baseURL.
func NewPasswordTokenSource(baseURL, username, password string, httpClient *http.Client) *PasswordTokenSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &PasswordTokenSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		userAgent:  "guide-builder/1.0",
		httpClient: httpClient,
		now:        time.Now,
	}
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Code     int       `json:"code"`
	Message  string    `json:"message"`
	Token    string    `json:"token"`
	Datetime time.Time `json:"datetime"`
}

// Token implements TokenSource.
func (p *PasswordTokenSource) Token(ctx context.Context) (Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	usable := p.current.Token != "" && !p.invalid && now.Before(p.current.Expires.Add(-time.Minute))
	if usable {
		return p.current, nil
	}
	if !p.lastRefresh.IsZero() && now.Sub(p.lastRefresh) < tokenRefreshInterval {
		if p.current.Token != "" {
			return p.current, nil
		}
		return Credential{}, errors.Mark(errors.New("token refresh throttled"), models.ErrAuth)
	}

	p.lastRefresh = now
	cred, err := p.login(ctx)
	if err != nil {
		return Credential{}, err
	}
	p.current = cred
	p.invalid = false
	return cred, nil
}

// Invalidate forces a refresh on the next Token call, subject to the refresh interval.
func (p *PasswordTokenSource) Invalidate() {
	p.mu.Lock()
	p.invalid = true
	p.mu.Unlock()
}

func (p *PasswordTokenSource) login(ctx context.Context) (Credential, error) {
	body, err := json.Marshal(tokenRequest{Username: p.username, Password: p.password})
	if err != nil {
		return Credential{}, errors.Wrap(err, "encode token request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/token", bytes.NewReader(body))
	if err != nil {
		return Credential{}, errors.Wrap(err, "build token request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Credential{}, errors.Mark(errors.Wrap(err, "token request"), models.ErrTransport)
	}
	defer resp.Body.Close()

	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= 500 {
			return Credential{}, errors.Mark(errors.Newf("token request: status %d", resp.StatusCode), models.ErrTransport)
		}
		return Credential{}, errors.Mark(errors.Wrapf(err, "decode token response (status %d)", resp.StatusCode), models.ErrAuth)
	}
	if out.Code != 0 || out.Token == "" {
		return Credential{}, errors.WithHint(
			errors.Mark(errors.Newf("login rejected: code %d: %s", out.Code, out.Message), models.ErrAuth),
			"check catalog.username and catalog.password",
		)
	}

	issued := out.Datetime
	if issued.IsZero() {
		issued = p.now()
	}
	return Credential{Token: out.Token, Expires: issued.Add(tokenLifetime)}, nil
}
