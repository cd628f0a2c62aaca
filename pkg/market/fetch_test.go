package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind FailureKind
		wantCode int
	}{
		{
			name: "ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "application/json", r.Header.Get("Accept"))
				assert.Equal(t, "yes", r.Header.Get("X-Test"))
				_, _ = w.Write([]byte(`{"result":"42"}`))
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream down", http.StatusBadGateway)
			},
			wantKind: KindStatus,
			wantCode: http.StatusBadGateway,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
			wantKind: KindDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			var out struct {
				Result string `json:"result"`
			}
			header := http.Header{}
			header.Set("X-Test", "yes")
			ferr := GetJSON(context.Background(), server.Client(), "test", server.URL, header, &out)
			if tt.wantKind == "" {
				require.Nil(t, ferr)
				assert.Equal(t, "42", out.Result)
				return
			}
			require.NotNil(t, ferr)
			assert.Equal(t, "test", ferr.Source)
			assert.Equal(t, tt.wantKind, ferr.Kind)
			assert.Equal(t, tt.wantCode, ferr.Status)
		})
	}
}

func TestGetJSONNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	ferr := GetJSON(context.Background(), &http.Client{Timeout: time.Second}, "test", url, nil, nil)
	require.NotNil(t, ferr)
	assert.Equal(t, KindNetwork, ferr.Kind)
}

func TestGetJSONContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ferr := GetJSON(ctx, server.Client(), "test", server.URL, nil, nil)
	require.NotNil(t, ferr)
	assert.Equal(t, KindNetwork, ferr.Kind)
	assert.True(t, errors.Is(ferr, context.DeadlineExceeded))
}

func TestResult(t *testing.T) {
	ok := Ok(3)
	assert.True(t, ok.Ok())
	assert.Equal(t, 3, ok.Value())
	v, err := ok.Unpack()
	assert.NoError(t, err)
	assert.Equal(t, 3, v)

	failed := Fail[int](FieldError("src", "price for %s: %w", "0xabc", ErrFieldMissing))
	assert.False(t, failed.Ok())
	assert.Zero(t, failed.Value())
	_, err = failed.Unpack()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFieldMissing)
	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, KindField, ferr.Kind)

	unknown := Fail[string](nil)
	assert.False(t, unknown.Ok())
	assert.Equal(t, KindUnknown, unknown.Err().Kind)
}

func TestPriceIndexLookup(t *testing.T) {
	idx := PriceIndex{Tokens: map[string]TokenPrice{
		"0x8076C74C5e3F5852037F31Ff0093Eeb8c8ADd8D3": {Symbol: "SAFEMOON", Price: "0.000000321"},
	}}
	tp, ok := idx.Lookup("0x8076c74c5e3f5852037f31ff0093eeb8c8add8d3")
	require.True(t, ok)
	assert.Equal(t, "SAFEMOON", tp.Symbol)
	_, ok = idx.Lookup("0xdead")
	assert.False(t, ok)

	lowerKeyed := PriceIndex{Tokens: map[string]TokenPrice{
		"0x000000000000000000000000000000000000dead": {Symbol: "DEAD"},
	}}
	tp, ok = lowerKeyed.Lookup("0x000000000000000000000000000000000000dEaD")
	require.True(t, ok, "non-checksum keys fall back to a case-insensitive match")
	assert.Equal(t, "DEAD", tp.Symbol)
}

func TestFetchFoldsErrors(t *testing.T) {
	ok := Fetch(context.Background(), "src", func(context.Context) (string, error) { return "v", nil })
	require.True(t, ok.Ok())
	assert.Equal(t, "v", ok.Value())

	typed := Fetch(context.Background(), "src", func(context.Context) (int, error) {
		return 0, &FetchError{Kind: KindStatus, Status: 500}
	})
	require.False(t, typed.Ok())
	assert.Equal(t, KindStatus, typed.Err().Kind)
	assert.Equal(t, "src", typed.Err().Source)

	plain := Fetch(context.Background(), "src", func(context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	require.False(t, plain.Ok())
	assert.Equal(t, KindUnknown, plain.Err().Kind)
	assert.EqualError(t, plain.Err(), "src: unknown failure: boom")
}
