package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/grlkrash/grlkrashai-go/internal/pulse"
	"github.com/grlkrash/grlkrashai-go/internal/social"
)

func testTrigger() pulse.Trigger {
	return pulse.Trigger{
		Milestone: "mcap-1m",
		Metric:    "market_cap_usd",
		Threshold: 1000000,
		Value:     1050000,
		Ts:        time.Now(),
	}
}

func TestPromoReturnsVariants(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Fatalf("missing api key header")
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.N != 3 {
			t.Fatalf("expected 3 variants requested, got %d", req.N)
		}
		if !strings.Contains(req.Messages[1].Content, "mcap-1m") {
			t.Fatalf("prompt missing milestone name: %s", req.Messages[1].Content)
		}
		_, _ = w.Write([]byte(`{"choices":[
			{"message":{"role":"assistant","content":"variant one $MORE"}},
			{"message":{"role":"assistant","content":"variant two $MORE"}},
			{"message":{"role":"assistant","content":"variant three $MORE"}}
		]}`))
	}))
	defer server.Close()

	gen := NewGenerator(GeneratorConfig{
		APIKey:   "test-key",
		Model:    "gpt-4o-mini",
		Persona:  "GRLKRASH",
		Variants: 3,
		BaseURL:  server.URL,
	}, zerolog.Nop())

	variants, err := gen.Promo(context.Background(), testTrigger())
	if err != nil {
		t.Fatalf("Promo returned error: %v", err)
	}
	if len(variants) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(variants))
	}
	if variants[0] != "variant one $MORE" {
		t.Fatalf("unexpected first variant: %s", variants[0])
	}
}

func TestPromoFallsBackOnAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gen := NewGenerator(GeneratorConfig{APIKey: "k", Model: "m", BaseURL: server.URL}, zerolog.Nop())
	variants, err := gen.Promo(context.Background(), testTrigger())
	if err != nil {
		t.Fatalf("expected fallback, got error: %v", err)
	}
	if len(variants) != 1 || !strings.Contains(variants[0], "$MORE") {
		t.Fatalf("unexpected fallback: %+v", variants)
	}
}

func TestReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"thank you fam"}}]}`))
	}))
	defer server.Close()

	gen := NewGenerator(GeneratorConfig{APIKey: "k", Model: "m", BaseURL: server.URL}, zerolog.Nop())
	reply, err := gen.Reply(context.Background(), social.Mention{ID: "1", Author: "fan", Text: "love it"})
	if err != nil {
		t.Fatalf("Reply returned error: %v", err)
	}
	if reply != "thank you fam" {
		t.Fatalf("unexpected reply: %s", reply)
	}
}

func TestReplyFallsBackOnEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	gen := NewGenerator(GeneratorConfig{APIKey: "k", Model: "m", BaseURL: server.URL}, zerolog.Nop())
	reply, err := gen.Reply(context.Background(), social.Mention{ID: "1", Author: "fan", Text: "love it"})
	if err != nil {
		t.Fatalf("expected fallback, got error: %v", err)
	}
	if !strings.Contains(reply, "@fan") {
		t.Fatalf("unexpected fallback reply: %s", reply)
	}
}
