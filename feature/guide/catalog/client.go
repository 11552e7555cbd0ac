package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"guide-builder/core/errors"
	"guide-builder/feature/guide/models"

	"go.uber.org/zap"
)

// MaxBatchSize is the largest id list the batch endpoints accept.
const MaxBatchSize = 500

// authCodes are catalog response codes meaning the credential or account was rejected.
var authCodes = map[int]bool{
	4001: true, // account expired
	4003: true, // invalid user
	4004: true, // account locked
	4005: true, // account disabled
	4006: true, // token expired
	5004: true, // unknown user
}

// Client talks to the remote catalog API.
type Client struct {
	baseURL        string
	artworkBaseURL string
	scope          string
	userAgent      string
	tokens         TokenSource
	httpClient     *http.Client
	logger         *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a catalog client.
func New(cfg Config, tokens TokenSource, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("catalog base url required")
	}
	if tokens == nil {
		return nil, errors.New("catalog token source required")
	}
	artwork := strings.TrimRight(strings.TrimSpace(cfg.ArtworkBaseURL), "/")
	if artwork == "" {
		artwork = base
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "guide-builder/1.0"
	}

	c := &Client{
		baseURL:        base,
		artworkBaseURL: artwork,
		scope:          cfg.ManifestScope,
		userAgent:      userAgent,
		tokens:         tokens,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "catalog"))
	return c, nil
}

// TokenSourceFor picks the token source matching the configuration.
func TokenSourceFor(cfg Config) TokenSource {
	if cfg.Token != "" {
		return StaticToken{Value: cfg.Token}
	}
	return NewPasswordTokenSource(cfg.BaseURL, cfg.Username, cfg.Password, &http.Client{Timeout: cfg.Timeout})
}

// apiError is the error envelope of the catalog.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type statusResponse struct {
	Code         int    `json:"code"`
	Message      string `json:"message"`
	SystemStatus []struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"systemStatus"`
}

// Status verifies the credential and that the service is online.
func (c *Client) Status(ctx context.Context) error {
	var out statusResponse
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/status", nil, &out); err != nil {
		return err
	}
	if authCodes[out.Code] {
		return errors.Mark(errors.Newf("status: code %d: %s", out.Code, out.Message), models.ErrAuth)
	}
	if len(out.SystemStatus) > 0 && !strings.EqualFold(out.SystemStatus[0].Status, "online") {
		return errors.Mark(errors.Newf("catalog offline: %s", out.SystemStatus[0].Message), models.ErrTransport)
	}
	return nil
}

type lineupResponse struct {
	Services []models.Service `json:"services"`
}

// Lineup returns the services of the account lineup.
func (c *Client) Lineup(ctx context.Context) ([]models.Service, error) {
	var out lineupResponse
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/lineup", nil, &out); err != nil {
		return nil, err
	}
	return out.Services, nil
}

type manifestResponse struct {
	Elements map[string]string `json:"elements"`
}

// Manifest returns the element to content hash mapping for the configured scope.
// An empty scope argument uses the configured one.
func (c *Client) Manifest(ctx context.Context, scope string) (map[string]string, error) {
	if scope == "" {
		scope = c.scope
	}
	u := c.baseURL + "/manifest"
	if scope != "" {
		u += "?scope=" + url.QueryEscape(scope)
	}
	var out manifestResponse
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	if out.Elements == nil {
		out.Elements = map[string]string{}
	}
	return out.Elements, nil
}

// ElementError is a per-element failure inside a batch response.
type ElementError struct {
	Key     string `json:"key"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ProgramBatch is the outcome of one batch call.
type ProgramBatch struct {
	Responses []models.FetchResponse
	Errors    []ElementError
}

type programItem struct {
	ProgramID string          `json:"programID"`
	MD5       string          `json:"md5,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Code      int             `json:"code,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// Programs fetches the payloads of up to MaxBatchSize elements.
func (c *Client) Programs(ctx context.Context, ids []string) (ProgramBatch, error) {
	if err := checkBatch(ids); err != nil {
		return ProgramBatch{}, err
	}
	var items []programItem
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/programs", ids, &items); err != nil {
		return ProgramBatch{}, err
	}

	var batch ProgramBatch
	for _, item := range items {
		if item.ProgramID == "" {
			continue
		}
		if item.Code != 0 || len(item.Data) == 0 {
			batch.Errors = append(batch.Errors, ElementError{Key: item.ProgramID, Code: item.Code, Message: item.Message})
			continue
		}
		batch.Responses = append(batch.Responses, models.FetchResponse{Key: item.ProgramID, Hash: item.MD5, Data: item.Data})
	}
	return batch, nil
}

type artworkItem struct {
	ProgramID string                    `json:"programID"`
	Data      []models.ArtworkCandidate `json:"data,omitempty"`
	Code      int                       `json:"code,omitempty"`
	Message   string                    `json:"message,omitempty"`
}

// ArtworkBatch is the outcome of one artwork metadata call.
type ArtworkBatch struct {
	Candidates map[string][]models.ArtworkCandidate
	Errors     []ElementError
}

// Artwork fetches the artwork candidates of up to MaxBatchSize elements.
// Tiers are normalized to lower case.
func (c *Client) Artwork(ctx context.Context, ids []string) (ArtworkBatch, error) {
	if err := checkBatch(ids); err != nil {
		return ArtworkBatch{}, err
	}
	var items []artworkItem
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/metadata/programs", ids, &items); err != nil {
		return ArtworkBatch{}, err
	}

	batch := ArtworkBatch{Candidates: make(map[string][]models.ArtworkCandidate, len(items))}
	for _, item := range items {
		if item.ProgramID == "" {
			continue
		}
		if item.Code != 0 {
			batch.Errors = append(batch.Errors, ElementError{Key: item.ProgramID, Code: item.Code, Message: item.Message})
			continue
		}
		cands := make([]models.ArtworkCandidate, 0, len(item.Data))
		for _, cand := range item.Data {
			cand.Tier = strings.ToLower(strings.TrimSpace(cand.Tier))
			cands = append(cands, cand)
		}
		batch.Candidates[item.ProgramID] = cands
	}
	return batch, nil
}

// Image is a downloaded image or a not-modified marker.
type Image struct {
	Data         []byte
	ContentType  string
	LastModified time.Time
	NotModified  bool
}

// Image downloads an image. A non-zero since sends If-Modified-Since and a
// 304 answer yields NotModified without data.
func (c *Client) Image(ctx context.Context, uri string, since time.Time) (*Image, error) {
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.artworkBaseURL + "/image/" + strings.TrimLeft(uri, "/")
	}

	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if !since.IsZero() {
		req.Header.Set("If-Modified-Since", since.UTC().Format(http.TimeFormat))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "GET image %s", uri), models.ErrTransport)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return &Image{NotModified: true}, nil
	case resp.StatusCode != http.StatusOK:
		return nil, classifyStatus(resp, "GET image "+uri)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "read image %s", uri), models.ErrTransport)
	}
	img := &Image{Data: data, ContentType: resp.Header.Get("Content-Type")}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			img.LastModified = t
		}
	}
	return img, nil
}

func checkBatch(ids []string) error {
	if len(ids) == 0 {
		return errors.New("empty batch")
	}
	if len(ids) > MaxBatchSize {
		return errors.Newf("batch of %d ids exceeds limit of %d", len(ids), MaxBatchSize)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	cred, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Wrapf(err, "build request %s %s", method, target)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("token", cred.Token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doJSON performs a JSON call and retries once with a fresh credential when the
// token source can invalidate a rejected one.
func (c *Client) doJSON(ctx context.Context, method, target string, in, out any) error {
	err := c.doJSONOnce(ctx, method, target, in, out)
	if err == nil || !errors.Is(err, models.ErrAuth) {
		return err
	}
	inv, ok := c.tokens.(Invalidator)
	if !ok {
		return err
	}
	inv.Invalidate()
	c.logger.Info("Credential rejected, retrying with a refreshed token", zap.String("url", target))
	return c.doJSONOnce(ctx, method, target, in, out)
}

func (c *Client) doJSONOnce(ctx context.Context, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, target, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "%s %s", method, target), models.ErrTransport)
	}
	defer resp.Body.Close()

	c.logger.Debug("Catalog call",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(resp, method+" "+target)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Mark(errors.Wrapf(err, "decode %s %s", method, target), models.ErrTransport)
	}
	return nil
}

// classifyStatus maps a non-success response to the error taxonomy.
func classifyStatus(resp *http.Response, op string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var envelope apiError
	_ = json.Unmarshal(raw, &envelope)

	msg := fmt.Sprintf("%s: status %d", op, resp.StatusCode)
	if envelope.Code != 0 {
		msg = fmt.Sprintf("%s: code %d: %s", msg, envelope.Code, envelope.Message)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden || authCodes[envelope.Code] {
		return errors.WithHint(errors.Mark(errors.New(msg), models.ErrAuth), "check the catalog credential")
	}
	return errors.Mark(errors.New(msg), models.ErrTransport)
}
