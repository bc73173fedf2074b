// Package api holds black-box smoke tests that exercise a running server.
// They are skipped unless API_BASE_URL points at a live instance with a
// clean database.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
)

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	StatusCode int `json:"-"`
}

func baseURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("API_BASE_URL")
	if url == "" {
		t.Skip("API_BASE_URL not set, skipping smoke test")
	}
	return url
}

func request(t *testing.T, method, path string, body interface{}) response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL(t)+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response for %s %s: %v", method, path, err)
	}
	out.StatusCode = resp.StatusCode
	return out
}

func decodeData(t *testing.T, r response, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(r.Data, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func uniqueTag(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, os.Getpid())
}
