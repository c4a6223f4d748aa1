package merge

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/andreyxaxa/analytics-bridge/internal/entity"
	"github.com/andreyxaxa/analytics-bridge/pkg/types/errs"
)

func validRaw() entity.RawEvent {
	return entity.RawEvent{
		EventID:      "e1",
		EventType:    "ORDER_CREATED",
		SourceSystem: "orders",
		Timestamp:    json.RawMessage(`"2024-01-01T00:00:00Z"`),
		Payload:      json.RawMessage(`{"orderId":"o-1","amount":10}`),
	}
}

func TestMerge_Identity(t *testing.T) {
	raw := validRaw()

	got, err := New().Merge(raw)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if got.EventID != raw.EventID ||
		got.EventType != raw.EventType ||
		got.SourceSystem != raw.SourceSystem ||
		!bytes.Equal(got.Timestamp, raw.Timestamp) ||
		!bytes.Equal(got.Payload, raw.Payload) {
		t.Fatalf("enriched %+v does not mirror raw %+v", got, raw)
	}
}

func TestMerge_NoExtraFields(t *testing.T) {
	got, err := New().Merge(validRaw())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	b, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}

	want := []string{"eventId", "eventType", "sourceSystem", "timestamp", "payload"}
	if len(fields) != len(want) {
		t.Fatalf("fields=%v want exactly %v", fields, want)
	}
	for _, k := range want {
		if _, ok := fields[k]; !ok {
			t.Fatalf("field %q missing from %s", k, b)
		}
	}
}

func TestMerge_DoesNotAliasInput(t *testing.T) {
	raw := validRaw()
	before := raw
	before.Payload = bytes.Clone(raw.Payload)
	before.Timestamp = bytes.Clone(raw.Timestamp)

	got, err := New().Merge(raw)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	got.Payload[0] = 'X'

	if !reflect.DeepEqual(raw, before) {
		t.Fatalf("raw changed: %+v", raw)
	}
}

func TestMerge_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*entity.RawEvent)
	}{
		{"eventId", func(r *entity.RawEvent) { r.EventID = "" }},
		{"eventType", func(r *entity.RawEvent) { r.EventType = "" }},
		{"sourceSystem", func(r *entity.RawEvent) { r.SourceSystem = "" }},
		{"timestamp absent", func(r *entity.RawEvent) { r.Timestamp = nil }},
		{"timestamp null", func(r *entity.RawEvent) { r.Timestamp = json.RawMessage("null") }},
		{"timestamp empty", func(r *entity.RawEvent) { r.Timestamp = json.RawMessage(`""`) }},
		{"payload absent", func(r *entity.RawEvent) { r.Payload = nil }},
		{"payload null", func(r *entity.RawEvent) { r.Payload = json.RawMessage("null") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(&raw)

			_, err := New().Merge(raw)
			if !errors.Is(err, errs.ErrMalformedEvent) {
				t.Fatalf("err=%v want ErrMalformedEvent", err)
			}
		})
	}
}

func TestMerge_EmptyObjectPayloadIsPresent(t *testing.T) {
	raw := validRaw()
	raw.Payload = json.RawMessage(`{}`)

	if _, err := New().Merge(raw); err != nil {
		t.Fatalf("Merge: %v", err)
	}
}

func TestMerge_NumericTimestampPassesThrough(t *testing.T) {
	raw := validRaw()
	raw.Timestamp = json.RawMessage(`1704067200.5`)

	got, err := New().Merge(raw)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if string(got.Timestamp) != "1704067200.5" {
		t.Fatalf("timestamp=%s want 1704067200.5", got.Timestamp)
	}
}
