package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSendAndParseDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("user agent %q", r.Header.Get("User-Agent"))
		}
		if r.URL.Query().Get("year") != "2024" {
			t.Errorf("query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"dolar","value":950.5}`))
	}))
	defer srv.Close()

	c := NewClient(WithTimeout(time.Second), WithUserAgent("test-agent"))
	var out struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}
	err := c.SendAndParse(context.Background(), &RequestOptions{
		URL:         srv.URL,
		QueryParams: map[string][]string{"year": {"2024"}},
	}, &out)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out.Name != "dolar" || out.Value != 950.5 {
		t.Fatalf("unexpected %+v", out)
	}
}

func TestSendAndParseStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient()
	err := c.SendAndParse(context.Background(), &RequestOptions{URL: srv.URL}, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusBadGateway || se.Body != "upstream broken" {
		t.Fatalf("unexpected %+v", se)
	}
}

func TestSendAndParseTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewClient(WithTimeout(time.Second)).SendAndParse(context.Background(), &RequestOptions{URL: url}, nil)
	if err == nil {
		t.Fatalf("expected transport error")
	}
	var se *StatusError
	if errors.As(err, &se) {
		t.Fatalf("transport failure must not look like a status error")
	}
}
