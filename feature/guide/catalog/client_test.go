package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"guide-builder/core/errors"
	"guide-builder/feature/guide/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, ManifestScope: "lineup"}, StaticToken{Value: "tok"})
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{}, StaticToken{Value: "x"})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "http://localhost"}, nil)
	assert.Error(t, err)
}

func TestClient_Manifest(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/manifest", r.URL.Path)
		assert.Equal(t, "lineup", r.URL.Query().Get("scope"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "tok", r.Header.Get("token"))
		_, _ = w.Write([]byte(`{"elements":{"A":"h1","B":"h2"}}`))
	}))

	manifest, err := c.Manifest(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "h1", "B": "h2"}, manifest)
}

func TestClient_Lineup(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"services":[{"stationID":"10","callsign":"ABC","name":"ABC East"}]}`))
	}))

	services, err := c.Lineup(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "ABC", services[0].CallSign)
}

func TestClient_Programs(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var ids []string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ids))
		assert.Equal(t, []string{"A", "B"}, ids)
		_, _ = w.Write([]byte(`[{"programID":"A","md5":"h1","data":{"programID":"A"}},{"programID":"B","code":6001,"message":"queued"}]`))
	}))

	batch, err := c.Programs(context.Background(), []string{"A", "B"})
	require.NoError(t, err)
	require.Len(t, batch.Responses, 1)
	assert.Equal(t, "A", batch.Responses[0].Key)
	assert.Equal(t, "h1", batch.Responses[0].Hash)
	require.Len(t, batch.Errors, 1)
	assert.Equal(t, 6001, batch.Errors[0].Code)
}

func TestClient_BatchLimits(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	_, err := c.Programs(context.Background(), nil)
	assert.Error(t, err)

	ids := make([]string, MaxBatchSize+1)
	_, err = c.Programs(context.Background(), ids)
	assert.Error(t, err)
	_, err = c.Artwork(context.Background(), ids)
	assert.Error(t, err)
}

func TestClient_Artwork(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metadata/programs", r.URL.Path)
		_, _ = w.Write([]byte(`[{"programID":"SH1","data":[{"tier":"Series","uri":"a.jpg","aspect":"2x3"},{"tier":"Team Event","uri":"b.jpg"}]},{"programID":"SH2","code":5000}]`))
	}))

	batch, err := c.Artwork(context.Background(), []string{"SH1", "SH2"})
	require.NoError(t, err)
	require.Len(t, batch.Candidates["SH1"], 2)
	assert.Equal(t, "series", batch.Candidates["SH1"][0].Tier)
	assert.Equal(t, "team event", batch.Candidates["SH1"][1].Tier)
	assert.Len(t, batch.Errors, 1)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"Unauthorized", http.StatusUnauthorized, `{}`, models.ErrAuth},
		{"Forbidden", http.StatusForbidden, `{}`, models.ErrAuth},
		{"Auth code", http.StatusBadRequest, `{"code":4003,"message":"INVALID_USER"}`, models.ErrAuth},
		{"Server error", http.StatusBadGateway, ``, models.ErrTransport},
		{"Other client error", http.StatusBadRequest, `{"code":2000}`, models.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			_, err := c.Manifest(context.Background(), "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := New(Config{BaseURL: srv.URL}, StaticToken{Value: "tok"})
	require.NoError(t, err)

	_, err = c.Lineup(context.Background())
	assert.True(t, errors.Is(err, models.ErrTransport))
}

func TestClient_Status(t *testing.T) {
	t.Run("Online", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"code":0,"systemStatus":[{"status":"Online"}]}`))
		}))
		assert.NoError(t, c.Status(context.Background()))
	})

	t.Run("Offline", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"code":0,"systemStatus":[{"status":"Offline","message":"maintenance"}]}`))
		}))
		assert.True(t, errors.Is(c.Status(context.Background()), models.ErrTransport))
	})
}

func TestClient_Image(t *testing.T) {
	modified := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/image/logo.png", r.URL.Path)
		if ims := r.Header.Get("If-Modified-Since"); ims != "" {
			since, err := http.ParseTime(ims)
			require.NoError(t, err)
			if !modified.After(since) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
		w.Header().Set("Last-Modified", modified.Format(http.TimeFormat))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))

	img, err := c.Image(context.Background(), "logo.png", time.Time{})
	require.NoError(t, err)
	assert.False(t, img.NotModified)
	assert.Equal(t, []byte("png-bytes"), img.Data)
	assert.True(t, img.LastModified.Equal(modified))

	img, err = c.Image(context.Background(), "logo.png", modified)
	require.NoError(t, err)
	assert.True(t, img.NotModified)
	assert.Empty(t, img.Data)
}

func TestPasswordTokenSource(t *testing.T) {
	var logins atomic.Int32
	issued := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token", r.URL.Path)
		var req tokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		logins.Add(1)
		if req.Password != "secret" {
			_, _ = w.Write([]byte(`{"code":4003,"message":"INVALID_USER"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(tokenResponse{Code: 0, Token: "fresh", Datetime: issued})
	}))
	defer srv.Close()

	now := issued
	src := NewPasswordTokenSource(srv.URL, "user", "secret", nil)
	src.now = func() time.Time { return now }

	cred, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", cred.Token)
	assert.True(t, cred.Expires.Equal(issued.Add(24*time.Hour)))

	// Cached while valid
	_, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), logins.Load())

	// Invalidation is throttled to one login per minute
	src.Invalidate()
	now = now.Add(30 * time.Second)
	_, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), logins.Load())

	now = now.Add(time.Minute)
	_, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), logins.Load())

	t.Run("Rejected login", func(t *testing.T) {
		bad := NewPasswordTokenSource(srv.URL, "user", "wrong", nil)
		_, err := bad.Token(context.Background())
		assert.True(t, errors.Is(err, models.ErrAuth))

		// A second immediate attempt is throttled, not retried
		before := logins.Load()
		_, err = bad.Token(context.Background())
		assert.True(t, errors.Is(err, models.ErrAuth))
		assert.Equal(t, before, logins.Load())
	})
}

func TestTokenSourceFor(t *testing.T) {
	_, ok := TokenSourceFor(Config{Token: "abc"}).(StaticToken)
	assert.True(t, ok)
	_, ok = TokenSourceFor(Config{BaseURL: "http://x", Username: "u"}).(*PasswordTokenSource)
	assert.True(t, ok)

	_, err := StaticToken{}.Token(context.Background())
	assert.True(t, errors.Is(err, models.ErrAuth))
}

func TestStaticToken(t *testing.T) {
	expires := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	cred, err := StaticToken{Value: "abc", Expires: expires}.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Credential{Token: "abc", Expires: expires}, cred)
}
