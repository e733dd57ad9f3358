package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	c.Handler().ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics body: %v", err)
	}
	return string(body)
}

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()

	c.RecordHTTPRequest("/webhook", 200)
	c.RecordHTTPRequest("/webhook", 200)
	c.RecordHTTPRequest("/messages", 400)
	c.RecordWebhookResult(ResultCreated)
	c.RecordWebhookResult(ResultDuplicate)
	c.RecordWebhookResult(ResultDuplicate)

	out := scrape(t, c)

	for _, want := range []string{
		`http_requests_total{path="/webhook",status="200"} 2`,
		`http_requests_total{path="/messages",status="400"} 1`,
		`webhook_requests_total{result="created"} 1`,
		`webhook_requests_total{result="duplicate"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q:\n%s", want, out)
		}
	}
}

func TestCollectorLatencySummary(t *testing.T) {
	c := NewCollector()

	c.ObserveLatency(10)
	c.ObserveLatency(30)

	out := scrape(t, c)

	if !strings.Contains(out, "http_request_latency_ms_count 2") {
		t.Errorf("missing latency count:\n%s", out)
	}
	if !strings.Contains(out, "http_request_latency_ms_sum 40") {
		t.Errorf("missing latency sum:\n%s", out)
	}
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector()
	b := NewCollector()

	a.RecordWebhookResult(ResultCreated)

	if strings.Contains(scrape(t, b), `webhook_requests_total{result="created"} 1`) {
		t.Error("collectors must not share state")
	}
}
