package sse

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func newBody(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

func readAll(t *testing.T, r Reader) []*Event {
	t.Helper()
	var events []*Event
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return events
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		events = append(events, ev)
	}
}

func TestReader_ChatCompletionStream(t *testing.T) {
	stream := "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n" +
		": keep-alive\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\r\n\r\n" +
		"data: [DONE]\n\n"
	events := readAll(t, NewReader(newBody(stream)))
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if !strings.Contains(events[1].Data, `"lo"`) {
		t.Errorf("CRLF line not parsed: %q", events[1].Data)
	}
	if events[2].Data != "[DONE]" {
		t.Errorf("last event = %q", events[2].Data)
	}
}

func TestReader_FieldsAndMultilineData(t *testing.T) {
	events := readAll(t, NewReader(newBody("event: completion\nid: 7\ndata: a\ndata:b\n\n")))
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Event != "completion" || ev.ID != "7" || ev.Data != "a\nb" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestReader_TrailingEventWithoutBlankLine(t *testing.T) {
	events := readAll(t, NewReader(newBody("data: last")))
	if len(events) != 1 || events[0].Data != "last" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestReader_EventWithoutDataIsDropped(t *testing.T) {
	events := readAll(t, NewReader(newBody("event: ping\n\ndata: x\n\n")))
	if len(events) != 1 || events[0].Event != "" || events[0].Data != "x" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestReader_LongLine(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	events := readAll(t, NewReader(newBody("data: "+long+"\n\n")))
	if len(events) != 1 || len(events[0].Data) != len(long) {
		t.Fatal("long data line was not read whole")
	}
}

func TestReader_Empty(t *testing.T) {
	if _, err := NewReader(newBody("")).Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}
