package portal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	mirrorerrors "coursemirror/pkg/errors"
	"coursemirror/pkg/logger"
	"coursemirror/pkg/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sessionFunc adapts a function to the Session interface
type sessionFunc func(req *http.Request) (*http.Response, error)

func (f sessionFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestGetSendsHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(server.Client(), nil, logger.NewTestLogger())
	client.SetHeader("User-Agent", "coursemirror-test")
	client.SetHeaders(map[string]string{"X-Trace": "1"})

	resp, err := client.Get(context.Background(), server.URL+"/page")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "coursemirror-test", got.Get("User-Agent"))
	assert.Equal(t, "1", got.Get("X-Trace"))
	assert.Contains(t, got.Get("Accept"), "text/html")
}

func TestGetStatusErrors(t *testing.T) {
	tests := []struct {
		status   int
		wantType mirrorerrors.ErrorType
	}{
		{http.StatusUnauthorized, mirrorerrors.ErrorTypeAuth},
		{http.StatusForbidden, mirrorerrors.ErrorTypeAuth},
		{http.StatusNotFound, mirrorerrors.ErrorTypeNotFound},
		{http.StatusInternalServerError, mirrorerrors.ErrorTypeHTTPStatus},
		{http.StatusServiceUnavailable, mirrorerrors.ErrorTypeHTTPStatus},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			log := logger.NewTestLogger()
			client := NewClient(server.Client(), nil, log)

			resp, err := client.Get(context.Background(), server.URL)
			assert.Nil(t, resp)
			require.Error(t, err)
			assert.True(t, mirrorerrors.IsType(err, tt.wantType), "got %v", err)

			var typed *mirrorerrors.Error
			require.True(t, errors.As(err, &typed))
			assert.Equal(t, tt.status, typed.Code)
			assert.Equal(t, server.URL, typed.URL)

			if tt.wantType == mirrorerrors.ErrorTypeAuth {
				assert.True(t, log.HasMessage("portal rejected the session"))
			}
		})
	}
}

func TestGetNetworkError(t *testing.T) {
	session := sessionFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})
	client := NewClient(session, nil, logger.NewNopLogger())

	_, err := client.Get(context.Background(), "https://portal.example/x")
	require.Error(t, err)
	assert.True(t, mirrorerrors.IsType(err, mirrorerrors.ErrorTypeNetwork))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGetCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	session := sessionFunc(func(req *http.Request) (*http.Response, error) {
		called = true
		return nil, req.Context().Err()
	})
	client := NewClient(session, ratelimit.Unlimited{}, logger.NewNopLogger())

	_, err := client.Get(ctx, "https://portal.example/x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestGetDocumentDecodesCharset(t *testing.T) {
	// "Ders Dosyaları" in ISO-8859-9 (Turkish).
	latin5 := []byte("<html><body><p>Ders Dosyalar\xfd</p></body></html>")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-9")
		w.Write(latin5)
	}))
	defer server.Close()

	client := NewClient(server.Client(), nil, logger.NewNopLogger())
	doc, err := client.GetDocument(context.Background(), server.URL+"/Sinif/1")
	require.NoError(t, err)

	body, err := io.ReadAll(doc.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Ders Dosyaları")
	assert.Equal(t, "/Sinif/1", doc.URL.Path)
}

func TestGetDocumentFollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<p>moved</p>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.Client(), nil, logger.NewNopLogger())
	doc, err := client.GetDocument(context.Background(), server.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, "/new", doc.URL.Path)
}

func TestGetDocumentWithoutRequestOnResponse(t *testing.T) {
	session := sessionFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"text/html"}},
			Body:       io.NopCloser(bytes.NewBufferString("<p>hi</p>")),
		}, nil
	})
	client := NewClient(session, nil, logger.NewNopLogger())

	doc, err := client.GetDocument(context.Background(), "https://portal.example/a?g1")
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example/a?g1", doc.URL.String())
}
