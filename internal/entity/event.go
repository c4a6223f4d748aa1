package entity

import "encoding/json"

// RawEvent is the record read from the customer or inventory topic.
// Timestamp and Payload are kept as the producer wrote them.
type RawEvent struct {
	EventID      string          `json:"eventId"`
	EventType    string          `json:"eventType"`
	SourceSystem string          `json:"sourceSystem"`
	Timestamp    json.RawMessage `json:"timestamp"`
	Payload      json.RawMessage `json:"payload"`
}

// EnrichedEvent is what gets forwarded to analytics. It mirrors RawEvent today,
// a merge that joins auxiliary state may add fields here.
type EnrichedEvent struct {
	EventID      string          `json:"eventId"`
	EventType    string          `json:"eventType"`
	SourceSystem string          `json:"sourceSystem"`
	Timestamp    json.RawMessage `json:"timestamp"`
	Payload      json.RawMessage `json:"payload"`
}
