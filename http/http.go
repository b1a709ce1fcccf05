// Package http holds the request plumbing shared by the streaming providers:
// posting a JSON body, rejecting non-success responses before the body is
// streamed, and guarding the body against stalls.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fwojciec/trickle"
)

// maxErrorBody bounds how much of a rejected response is read.
const maxErrorBody = 64 << 10

// PostJSON marshals payload, POSTs it to url with header and returns the
// response once a 2xx status arrives. The caller owns the returned body.
//
// A non-2xx status is returned as a *trickle.RequestRejectedError and the
// body is closed.
func PostJSON(ctx context.Context, hc *http.Client, url string, header http.Header, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	if err := CheckStatus(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CheckStatus returns nil for a 2xx response. Otherwise it reads and closes
// the body and returns a *trickle.RequestRejectedError.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()

	rejected := &trickle.RequestRejectedError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		rejected.Message = fmt.Sprintf("failed to read body: %v", err)
		return rejected
	}
	rejected.Message = ErrorMessage(body)
	return rejected
}

// ErrorMessage extracts a human-readable message from an error response
// body. It understands {"error": "..."} and {"error": {"message": "..."}}
// and falls back to the trimmed body.
func ErrorMessage(body []byte) string {
	var v struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &v); err == nil {
		var s string
		if json.Unmarshal(v.Error, &s) == nil && s != "" {
			return s
		}
		var obj struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}
		if json.Unmarshal(v.Error, &obj) == nil && obj.Message != "" {
			if obj.Type != "" {
				return obj.Type + ": " + obj.Message
			}
			return obj.Message
		}
		if v.Message != "" {
			return v.Message
		}
	}
	return strings.TrimSpace(string(body))
}
