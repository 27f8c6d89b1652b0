package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/clientdesk/internal/log"
	"github.com/felixgeelhaar/clientdesk/internal/telemetry"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithLogger(log.Discard())}, opts...)
	return NewClient(srv.URL+"/", opts...)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestNewClient(t *testing.T) {
	c := NewClient("https://api.example.com/", WithTimeout(5*time.Second), WithUserAgent("test/1"))

	assert.Equal(t, "https://api.example.com", c.BaseURL)
	assert.Equal(t, 5*time.Second, c.HTTPClient.Timeout)
	assert.Equal(t, "test/1", c.userAgent)
}

func TestRequestToken_FormEncoded(t *testing.T) {
	var gotUser, gotPass, gotCT, gotRequestID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotUser = r.PostForm.Get("username")
		gotPass = r.PostForm.Get("password")
		gotCT = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-ID")
		writeJSON(w, http.StatusOK, `{"access_token":"abc","token_type":"bearer"}`)
	})

	tok, err := c.RequestToken(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)

	assert.Equal(t, "abc", tok.AccessToken)
	assert.Equal(t, "bearer", tok.TokenType)
	assert.Equal(t, "ana@example.com", gotUser)
	assert.Equal(t, "secret1", gotPass)
	assert.Equal(t, "application/x-www-form-urlencoded", gotCT)
	_, err = uuid.Parse(gotRequestID)
	assert.NoError(t, err, "X-Request-ID should be a uuid")
}

func TestAuthenticate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"access_token":"xyz"}`)
	})

	token, err := c.Authenticate(context.Background(), "a@b.co", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "xyz", token)
}

func TestRequestToken_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "bad credentials",
			status: http.StatusUnauthorized,
			body:   `{"detail":"Incorrect username or password"}`,
			check: func(t *testing.T, err error) {
				var ue *UnauthorizedError
				require.ErrorAs(t, err, &ue)
				assert.Equal(t, 401, ue.StatusCode)
				assert.Equal(t, "Incorrect username or password", ue.Detail)
			},
		},
		{
			name:   "validation detail list",
			status: http.StatusUnprocessableEntity,
			body:   `{"detail":[{"loc":["body","username"],"msg":"field required"},{"msg":"too short"}]}`,
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, "field required; too short", se.Detail)
			},
		},
		{
			name:   "missing access token",
			status: http.StatusOK,
			body:   `{"token_type":"bearer"}`,
			check: func(t *testing.T, err error) {
				assert.True(t, IsDecode(err))
			},
		},
		{
			name:   "malformed json",
			status: http.StatusOK,
			body:   `{"access_token":`,
			check: func(t *testing.T, err error) {
				assert.True(t, IsDecode(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			_, err := c.RequestToken(context.Background(), "a@b.co", "secret1")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestListClients(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/client", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, `[
			{"name":"Acme","panel_name":"P1","effective_start_at":"2024-01-01T00:00:00Z","effective_end_at":"2024-12-31T00:00:00Z"},
			{"name":"Globex","panel_name":"P2","effective_start_at":"2023-05-10T08:30:00","effective_end_at":null}
		]`)
	})

	records, err := c.ListClients(context.Background(), "abc")
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc", gotAuth)
	require.Len(t, records, 2)
	assert.Equal(t, "Acme", records[0].Name)
	assert.Equal(t, "P1", records[0].PanelName)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), records[0].EffectiveEndAt.Time)
	assert.Equal(t, "Globex", records[1].Name, "order must be preserved")
	assert.True(t, records[1].EffectiveEndAt.IsZero())
}

func TestListClients_EmptyArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})

	records, err := c.ListClients(context.Background(), "abc")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestListClients_ErrorKinds(t *testing.T) {
	t.Run("401 is unauthorized", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)
		})
		_, err := c.ListClients(context.Background(), "expired")
		assert.True(t, IsUnauthorized(err))
	})

	t.Run("403 is unauthorized", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusForbidden, `{"error":"forbidden"}`)
		})
		_, err := c.ListClients(context.Background(), "abc")
		assert.True(t, IsUnauthorized(err))
		assert.Contains(t, err.Error(), "forbidden")
	})

	t.Run("500 is a status error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("upstream exploded"))
		})
		_, err := c.ListClients(context.Background(), "abc")
		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, 500, se.StatusCode)
		assert.Equal(t, "upstream exploded", se.Detail)
		assert.False(t, IsUnauthorized(err))
	})

	t.Run("bad timestamp is a decode error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `[{"name":"Acme","effective_start_at":"yesterday"}]`)
		})
		_, err := c.ListClients(context.Background(), "abc")
		assert.True(t, IsDecode(err))
	})

	t.Run("closed server is a network error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c := NewClient(url, WithLogger(log.Discard()))
		_, err := c.ListClients(context.Background(), "abc")
		assert.True(t, IsNetwork(err))
		assert.False(t, IsUnauthorized(err))
	})

	t.Run("cancelled context is a network error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `[]`)
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.ListClients(ctx, "abc")
		assert.True(t, IsNetwork(err))
	})
}

func TestListClients_Contract(t *testing.T) {
	contract, err := LoadContract(context.Background())
	require.NoError(t, err)

	t.Run("conforming body passes", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `[{"name":"Acme","panel_name":null,"effective_start_at":"2024-01-01T00:00:00Z","effective_end_at":"2024-12-31T00:00:00Z"}]`)
		}, WithContract(contract))
		records, err := c.ListClients(context.Background(), "abc")
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("object instead of array fails", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"items":[]}`)
		}, WithContract(contract))
		_, err := c.ListClients(context.Background(), "abc")
		assert.True(t, IsDecode(err))
	})

	t.Run("numeric name fails", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `[{"name":42}]`)
		}, WithContract(contract))
		_, err := c.ListClients(context.Background(), "abc")
		assert.True(t, IsDecode(err))
	})

	t.Run("empty access token fails", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"access_token":""}`)
		}, WithContract(contract))
		_, err := c.RequestToken(context.Background(), "a@b.co", "secret1")
		assert.True(t, IsDecode(err))
	})
}

func TestContractOperations(t *testing.T) {
	contract, err := LoadContract(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"POST /token", "GET /client"}, contract.Operations())
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: &UnauthorizedError{StatusCode: 401}, want: "unauthorized"},
		{err: fmt.Errorf("wrapped: %w", &NetworkError{Err: errors.New("refused")}), want: "network"},
		{err: &DecodeError{Err: errors.New("bad json")}, want: "decode"},
		{err: &StatusError{StatusCode: 502}, want: "status"},
		{err: errors.New("boom"), want: "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err), "%v", tt.err)
	}
}

func TestClient_TracesRequests(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	restore := telemetry.UseTracerProvider(tp)
	t.Cleanup(restore)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})
	_, err := c.ListClients(context.Background(), "abc")
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /client", spans[0].Name)
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind)
}
