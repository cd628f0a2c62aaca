package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes bounds upstream response bodies; the full token index is a few MB.
const maxBodyBytes = 32 << 20

// GetJSON issues a single GET to rawURL and decodes the JSON body into out.
// It never retries; a nil return means out was populated.
func GetJSON(ctx context.Context, hc *http.Client, source, rawURL string, header http.Header, out any) *FetchError {
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return NewFetchError(source, KindNetwork, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	resp, err := hc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return NewFetchError(source, KindNetwork, ctxErr)
		}
		return NewFetchError(source, KindNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return NewFetchError(source, KindDecode, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &FetchError{
			Source: source,
			Kind:   KindStatus,
			Status: resp.StatusCode,
			Err:    errors.New(snippet(body)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return NewFetchError(source, KindDecode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "empty body"
	}
	const max = 256
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
