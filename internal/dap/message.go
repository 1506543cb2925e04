package dap

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	errs "github.com/jovyanlabs/kernel-debug-sdk-go/internal/errors"
)

// Wire envelope kinds, carried in the type field of every message.
const (
	TypeRequest  = "request"
	TypeResponse = "response"
	TypeEvent    = "event"
)

// Names of the events kernels emit, for use with event subscriptions.
const (
	EventInitialized = "initialized"
	EventOutput      = "output"
	EventProcess     = "process"
	EventThread      = "thread"
	EventStopped     = "stopped"
	EventContinued   = "continued"
	EventTerminated  = "terminated"
	EventExited      = "exited"
)

// Request asks the kernel to execute one debug command.
//
// Seq is unique and strictly increasing within a session. Arguments are
// command-specific and may be nil for argument-less commands such as
// configurationDone.
type Request struct {
	Seq       int            `json:"seq"`
	Type      string         `json:"type"`
	Command   string         `json:"command"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// NewRequest builds a request envelope for the given command.
func NewRequest(seq int, command string, arguments map[string]any) *Request {
	return &Request{
		Seq:       seq,
		Type:      TypeRequest,
		Command:   command,
		Arguments: arguments,
	}
}

// Response answers exactly one request: RequestSeq echoes the request's Seq.
//
// Success=false is a protocol-level outcome, not a failure of the session
// machinery: the kernel understood the request and declined it. Message
// holds the kernel's explanation in that case.
type Response struct {
	Seq        int            `json:"seq"`
	Type       string         `json:"type"`
	RequestSeq int            `json:"request_seq"`
	Success    bool           `json:"success"`
	Command    string         `json:"command"`
	Message    string         `json:"message,omitempty"`
	Body       map[string]any `json:"body,omitempty"`
}

// Event is an unsolicited kernel notification (stopped, output, ...).
type Event struct {
	Seq   int            `json:"seq"`
	Type  string         `json:"type"`
	Event string         `json:"event"`
	Body  map[string]any `json:"body,omitempty"`
}

// Decode classifies raw wire data by its type field and unmarshals it into
// the matching envelope struct (*Request, *Response, or *Event).
//
// Unknown kinds return ErrUnknownMessageType; callers should skip those
// messages so newer kernels keep working. Malformed data returns a
// MessageParseError carrying the raw input.
func Decode(data []byte) (any, error) {
	if !gjson.ValidBytes(data) {
		return nil, &errs.MessageParseError{
			RawData: string(data),
			Err:     errors.New("invalid JSON"),
		}
	}

	kind := gjson.GetBytes(data, "type").String()
	switch kind {
	case TypeRequest:
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, &errs.MessageParseError{RawData: string(data), Err: err}
		}

		return &req, nil

	case TypeResponse:
		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, &errs.MessageParseError{RawData: string(data), Err: err}
		}

		return &resp, nil

	case TypeEvent:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, &errs.MessageParseError{RawData: string(data), Err: err}
		}

		return &ev, nil

	default:
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownMessageType, kind)
	}
}

// BodyAs decodes a schemaless payload into a typed struct through a JSON
// round trip. The zero value is returned for a nil payload.
func BodyAs[T any](body map[string]any) (T, error) {
	var out T
	if body == nil {
		return out, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return out, fmt.Errorf("encode body: %w", err)
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode body: %w", err)
	}

	return out, nil
}
