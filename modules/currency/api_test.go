package currency

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const floatratesSample = `{
	"eur": {"code":"EUR","alphaCode":"EUR","numericCode":"978","name":"Euro","rate":0.87719146284662,"date":"Tue, 9 Oct 2018 12:00:01 GMT","inverseRate":1.140001974888},
	"gbp": {"code":"GBP","alphaCode":"GBP","numericCode":"826","name":"U.K. Pound Sterling","rate":0.76,"date":"Tue, 9 Oct 2018 12:00:01 GMT","inverseRate":1.315789}
}`

func TestHTTPRateSourceFetchRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(floatratesSample))
	}))
	defer srv.Close()

	source := NewHTTPRateSource(srv.URL, time.Second)
	assert.Equal(t, srv.URL, source.URL())

	raw, err := source.FetchRates(context.Background())
	require.NoError(t, err)
	require.Len(t, raw, 2)
	assert.Equal(t, "Euro", raw["eur"].Name)
	assert.Equal(t, 1.140001974888, raw["eur"].InverseRate)

	rates := PrepareRates(raw)
	assert.Equal(t, []string{"EUR", "GBP", "USD"}, rates.Codes())
}

func TestHTTPRateSourceErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "bad status", status: http.StatusBadGateway, body: "oops", wantErr: "status 502"},
		{name: "bad json", status: http.StatusOK, body: "{", wantErr: "decoding rates response"},
		{name: "empty feed", status: http.StatusOK, body: "{}", wantErr: "no rates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPRateSource(srv.URL, time.Second).FetchRates(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHTTPRateSourceHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewHTTPRateSource(srv.URL, 5*time.Second).FetchRates(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewHTTPRateSourceDefaults(t *testing.T) {
	source := NewHTTPRateSource("", 0)
	assert.Equal(t, defaultRatesURL, source.URL())
	assert.Equal(t, apiTimeout, source.client.Timeout)
}

func TestLoggingRateSource(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewLogfmtLogger(&buf)

	ok := NewLoggingRateSource(logger, &fakeRateSource{rates: mockRates()})
	_, err := ok.FetchRates(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "method=fetch_rates")
	assert.Contains(t, buf.String(), "count=17")
	assert.Contains(t, buf.String(), "err=null")

	buf.Reset()
	failing := NewLoggingRateSource(logger, &fakeRateSource{err: errors.New("boom")})
	_, err = failing.FetchRates(context.Background())
	require.Error(t, err)
	assert.Contains(t, buf.String(), "err=boom")
}
