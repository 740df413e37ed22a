package ics_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calmail/internal/ics"
)

func TestFetcher_Fetch_Success(t *testing.T) {
	payload := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(payload))
	}))
	defer ts.Close()

	body, err := ics.NewFetcher().Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, payload, string(body))
}

func TestFetcher_Fetch_NonOKStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"NotFound", http.StatusNotFound},
		{"ServerError", http.StatusInternalServerError},
		{"Forbidden", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("<html>error page</html>"))
			}))
			defer ts.Close()

			_, err := ics.NewFetcher().Fetch(context.Background(), ts.URL)
			require.Error(t, err)

			var terr *ics.TransportError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, tt.status, terr.Status)
		})
	}
}

func TestFetcher_Fetch_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close() // server gone before the request

	_, err := ics.NewFetcher().Fetch(context.Background(), url)
	require.Error(t, err)

	var terr *ics.TransportError
	assert.ErrorAs(t, err, &terr)
}

func TestFetcher_Fetch_ContextCancellation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := ics.NewFetcher().Fetch(ctx, ts.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetcher_Fetch_EmptyURL(t *testing.T) {
	_, err := ics.NewFetcher().Fetch(context.Background(), "")
	require.Error(t, err)

	var terr *ics.TransportError
	assert.True(t, errors.As(err, &terr))
}
