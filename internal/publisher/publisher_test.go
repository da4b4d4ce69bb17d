package publisher

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/grlkrash/grlkrashai-go/internal/ratelimit"
	"github.com/grlkrash/grlkrashai-go/internal/social"
)

type fakePlatform struct {
	name   string
	err    error
	calls  int
}

func (f *fakePlatform) Name() string { return f.name }

func (f *fakePlatform) Publish(ctx context.Context, post social.Post) (*social.Receipt, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &social.Receipt{
		Platform:   f.name,
		PostID:     post.ID,
		ExternalID: fmt.Sprintf("%s-%d", f.name, f.calls),
		Ts:         time.Now().UTC(),
	}, nil
}

type memRecorder struct {
	receipts []social.Receipt
}

func (m *memRecorder) Record(r social.Receipt) { m.receipts = append(m.receipts, r) }

func TestSubmitPublishesToEveryPlatform(t *testing.T) {
	rec := &memRecorder{}
	exec := NewExecutor(zerolog.Nop(), nil, rec, nil)

	twitter := &fakePlatform{name: "twitter"}
	discord := &fakePlatform{name: "discord"}
	results := exec.Submit(context.Background(), social.Post{ID: "p1", Kind: "promo", Text: "gm"}, []social.Platform{twitter, discord})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Err != nil || res.Skipped || res.Receipt == nil {
			t.Fatalf("unexpected result: %+v", res)
		}
	}
	if len(rec.receipts) != 2 {
		t.Fatalf("expected 2 recorded receipts, got %d", len(rec.receipts))
	}
}

func TestSubmitPartialFailure(t *testing.T) {
	exec := NewExecutor(zerolog.Nop(), nil, nil, nil)

	ok := &fakePlatform{name: "twitter"}
	broken := &fakePlatform{name: "discord", err: fmt.Errorf("webhook gone")}
	results := exec.Submit(context.Background(), social.Post{ID: "p1", Kind: "promo"}, []social.Platform{broken, ok})

	if results[0].Err == nil {
		t.Fatalf("expected error from broken platform")
	}
	if results[1].Err != nil || results[1].Receipt == nil {
		t.Fatalf("healthy platform must still publish: %+v", results[1])
	}
}

func TestSubmitRespectsRateLimit(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.Caps{HourlyPerPlatform: 1})
	exec := NewExecutor(zerolog.Nop(), limiter, nil, nil)

	platform := &fakePlatform{name: "twitter"}
	post := social.Post{ID: "p1", Kind: "promo"}

	first := exec.Submit(context.Background(), post, []social.Platform{platform})
	if first[0].Skipped || first[0].Err != nil {
		t.Fatalf("first post should pass: %+v", first[0])
	}
	second := exec.Submit(context.Background(), post, []social.Platform{platform})
	if !second[0].Skipped {
		t.Fatalf("second post should be rate limited: %+v", second[0])
	}
	if platform.calls != 1 {
		t.Fatalf("rate-limited submit must not reach the platform, calls=%d", platform.calls)
	}
}

func TestJSONLRecorder(t *testing.T) {
	tmp := t.TempDir()
	path := tmp + "/receipts.jsonl"

	recorder, err := NewJSONLRecorder(path)
	if err != nil {
		t.Fatalf("NewJSONLRecorder error: %v", err)
	}
	receipt := social.Receipt{Platform: "twitter", PostID: "p1", ExternalID: "100"}
	recorder.Record(receipt)
	if err := recorder.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open recorded file: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		t.Fatalf("expected one line in recorder output")
	}
	var decoded social.Receipt
	if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if decoded.Platform != receipt.Platform || decoded.ExternalID != receipt.ExternalID {
		t.Fatalf("unexpected decoded receipt")
	}
}
