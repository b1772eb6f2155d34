package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind discriminates the seven record kinds found in session files.
type Kind string

// Record kinds, matching the wire values of the top-level "type" field.
const (
	KindUser                Kind = "user"
	KindAssistant           Kind = "assistant"
	KindSystem              Kind = "system"
	KindSummary             Kind = "summary"
	KindFileHistorySnapshot Kind = "file-history-snapshot"
	KindQueueOperation      Kind = "queue-operation"
	KindTurnEnd             Kind = "turn_end"
)

// SubtypeAPIError marks system records produced when an API request failed
// and may be retried.
const SubtypeAPIError = "api_error"

// kindForType maps a wire "type" value to a Kind. Underscore spellings are
// accepted alongside the hyphenated ones newer producers write.
func kindForType(s string) (Kind, bool) {
	switch s {
	case "user":
		return KindUser, true
	case "assistant":
		return KindAssistant, true
	case "system":
		return KindSystem, true
	case "summary":
		return KindSummary, true
	case "file-history-snapshot", "file_history_snapshot":
		return KindFileHistorySnapshot, true
	case "queue-operation", "queue_operation":
		return KindQueueOperation, true
	case "turn_end":
		return KindTurnEnd, true
	}
	return "", false
}

// Record is one deserialized JSONL line. Typed fields cover the schema this
// package recognizes; the complete original object is retained in raw, so
// serialization is lossless regardless of producer version. Records are
// immutable after decoding.
type Record struct {
	Kind        Kind
	UUID        string
	ParentUUID  string
	SessionID   string
	Version     string
	IsSidechain bool
	IsMeta      bool
	CWD         string
	RequestID   string

	// user / assistant
	Message *Message

	// system
	Subtype      string
	RetryAttempt int
	MaxRetries   int
	RetryInMs    int64

	// summary
	Summary  string
	LeafUUID string

	// file-history-snapshot
	SnapshotMessageID string

	// queue-operation
	Operation string

	rawTimestamp string
	timestamp    time.Time
	raw          RawFields
}

// recognizedKeys are the top-level fields the typed decoder consumes.
// Everything else is reported by UnknownFields.
var recognizedKeys = []string{
	"type", "uuid", "parentUuid", "sessionId", "version", "timestamp",
	"isSidechain", "isMeta", "cwd", "gitBranch", "userType", "requestId",
	"message", "subtype", "retryAttempt", "maxRetries", "retryInMs",
	"summary", "leafUuid", "messageId", "snapshot", "operation",
}

// DecodeRecord parses one JSON object into a Record. The only required
// field is "type"; every other field is optional and kind-dependent.
func DecodeRecord(data []byte) (*Record, error) {
	var raw RawFields
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	typeRaw, ok := raw.Get("type")
	if !ok {
		return nil, fmt.Errorf("missing required field %q", "type")
	}
	var typeStr string
	if err := json.Unmarshal(typeRaw, &typeStr); err != nil {
		return nil, fmt.Errorf("field %q: %w", "type", err)
	}
	kind, ok := kindForType(typeStr)
	if !ok {
		return nil, fmt.Errorf("unrecognized record type %q", typeStr)
	}

	r := &Record{Kind: kind, raw: raw}
	rawString(&raw, "uuid", &r.UUID)
	rawString(&raw, "parentUuid", &r.ParentUUID)
	rawString(&raw, "sessionId", &r.SessionID)
	rawString(&raw, "version", &r.Version)
	rawString(&raw, "cwd", &r.CWD)
	rawString(&raw, "requestId", &r.RequestID)
	rawBool(&raw, "isSidechain", &r.IsSidechain)
	rawBool(&raw, "isMeta", &r.IsMeta)

	if rawString(&raw, "timestamp", &r.rawTimestamp) {
		r.timestamp = ParseTimestamp(r.rawTimestamp)
	}

	switch kind {
	case KindUser, KindAssistant:
		if msgRaw, ok := raw.Get("message"); ok {
			var msg Message
			if err := json.Unmarshal(msgRaw, &msg); err != nil {
				return nil, fmt.Errorf("field %q: %w", "message", err)
			}
			r.Message = &msg
		}
	case KindSystem:
		rawString(&raw, "subtype", &r.Subtype)
		rawInt(&raw, "retryAttempt", &r.RetryAttempt)
		rawInt(&raw, "maxRetries", &r.MaxRetries)
		rawInt64(&raw, "retryInMs", &r.RetryInMs)
	case KindSummary:
		rawString(&raw, "summary", &r.Summary)
		rawString(&raw, "leafUuid", &r.LeafUUID)
	case KindFileHistorySnapshot:
		rawString(&raw, "messageId", &r.SnapshotMessageID)
	case KindQueueOperation:
		rawString(&raw, "operation", &r.Operation)
	}

	return r, nil
}

func rawString(f *RawFields, key string, dst *string) bool {
	v, ok := f.Get(key)
	if !ok {
		return false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return false
	}
	*dst = s
	return true
}

func rawBool(f *RawFields, key string, dst *bool) {
	if v, ok := f.Get(key); ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			*dst = b
		}
	}
}

func rawInt(f *RawFields, key string, dst *int) {
	if v, ok := f.Get(key); ok {
		var n int
		if err := json.Unmarshal(v, &n); err == nil {
			*dst = n
		}
	}
}

func rawInt64(f *RawFields, key string, dst *int64) {
	if v, ok := f.Get(key); ok {
		var n int64
		if err := json.Unmarshal(v, &n); err == nil {
			*dst = n
		}
	}
}

// MessageType returns the discriminator tag as a short string.
func (r *Record) MessageType() string {
	return string(r.Kind)
}

// Timestamp returns the record's wall-clock instant and whether one was
// present and parseable.
func (r *Record) Timestamp() (time.Time, bool) {
	return r.timestamp, !r.timestamp.IsZero()
}

// RawTimestamp returns the timestamp exactly as written in the log.
func (r *Record) RawTimestamp() string {
	return r.rawTimestamp
}

// MessageID returns the model-message id shared by all streaming fragments
// of one assistant turn, or "" for records without one.
func (r *Record) MessageID() string {
	if r.Message == nil {
		return ""
	}
	return r.Message.ID
}

// Usage returns the token usage of an assistant record, or nil.
func (r *Record) Usage() *Usage {
	if r.Message == nil {
		return nil
	}
	return r.Message.Usage
}

// Content returns the record's content blocks, or nil.
func (r *Record) Content() ContentList {
	if r.Message == nil {
		return nil
	}
	return r.Message.Content
}

// UnknownFields returns the top-level fields the typed decoder did not
// consume, in their original order.
func (r *Record) UnknownFields() RawFields {
	return r.raw.Without(recognizedKeys...)
}

// MarshalJSON re-emits the original JSON object verbatim. Records built by
// hand (no raw form) are serialized from their typed fields.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r.raw.Len() > 0 {
		return r.raw.MarshalJSON()
	}
	return r.marshalSynthetic()
}

// marshalSynthetic builds a JSON object from typed fields only. Used for
// records constructed programmatically, e.g. in tests.
func (r *Record) marshalSynthetic() ([]byte, error) {
	var f RawFields
	set := func(key string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		f.Set(key, b)
		return nil
	}
	if err := set("type", string(r.Kind)); err != nil {
		return nil, err
	}
	if r.UUID != "" {
		_ = set("uuid", r.UUID)
	}
	if r.ParentUUID != "" {
		_ = set("parentUuid", r.ParentUUID)
	}
	if r.SessionID != "" {
		_ = set("sessionId", r.SessionID)
	}
	if r.Version != "" {
		_ = set("version", r.Version)
	}
	if r.rawTimestamp != "" {
		_ = set("timestamp", r.rawTimestamp)
	}
	if r.IsSidechain {
		_ = set("isSidechain", true)
	}
	if r.Message != nil {
		_ = set("message", r.Message)
	}
	return f.MarshalJSON()
}

// ParseTimestamp parses the emitter's ISO 8601 timestamps. It tries
// RFC3339Nano, RFC3339, then a plain datetime without timezone. Returns the
// zero time when the string is empty or unparseable.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			t, err = time.Parse("2006-01-02T15:04:05", s)
			if err != nil {
				return time.Time{}
			}
		}
	}
	return t
}
