package sse

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewStream_SetsEventStreamHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	stream, err := NewStream(rec)
	if err != nil {
		t.Fatalf("new stream: %v", err)
	}
	if stream == nil {
		t.Fatalf("expected a stream")
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Fatalf("unexpected cache control %q", got)
	}
	if rec.Code != 200 {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestSend_WritesFramedEvents(t *testing.T) {
	rec := httptest.NewRecorder()
	stream, err := NewStream(rec)
	if err != nil {
		t.Fatalf("new stream: %v", err)
	}

	if err := stream.Send(EventProgress, map[string]int{"processed": 100, "total": 250}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := stream.Send(EventResult, map[string]string{"status": "completed"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	body := rec.Body.String()
	want := "event: progress\ndata: {\"processed\":100,\"total\":250}\n\n"
	if !strings.Contains(body, want) {
		t.Fatalf("progress frame missing from %q", body)
	}
	if !strings.Contains(body, "event: result\ndata: {\"status\":\"completed\"}\n\n") {
		t.Fatalf("result frame missing from %q", body)
	}
	if strings.Index(body, "event: progress") > strings.Index(body, "event: result") {
		t.Fatalf("frames out of order: %q", body)
	}
}

func TestSend_RejectsUnmarshalableData(t *testing.T) {
	rec := httptest.NewRecorder()
	stream, err := NewStream(rec)
	if err != nil {
		t.Fatalf("new stream: %v", err)
	}
	if err := stream.Send(EventError, make(chan int)); err == nil {
		t.Fatalf("expected a marshal error")
	}
}
