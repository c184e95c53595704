// Package input turns raw glasses events into reducer actions.
package input

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// EventType is the vendor event code.
type EventType int

const (
	Click EventType = iota
	ScrollTop
	ScrollBottom
	DoubleClick
	ForegroundEnter
	ForegroundExit
	AbnormalExit
)

var eventTypeNames = map[string]EventType{
	"CLICK":            Click,
	"SCROLL_TOP":       ScrollTop,
	"SCROLL_BOTTOM":    ScrollBottom,
	"DOUBLE_CLICK":     DoubleClick,
	"FOREGROUND_ENTER": ForegroundEnter,
	"FOREGROUND_EXIT":  ForegroundExit,
	"ABNORMAL_EXIT":    AbnormalExit,
}

func (t EventType) String() string {
	for name, v := range eventTypeNames {
		if v == t {
			return name
		}
	}
	return "UNKNOWN(" + strconv.Itoa(int(t)) + ")"
}

// TypePtr is a convenience for building events in code.
func TypePtr(t EventType) *EventType { return &t }

// ErrUnknownEvent is returned for payloads that match no event source.
var ErrUnknownEvent = errors.New("input: unrecognized event")

// Event is one of ListEvent, TextEvent or SysEvent.
type Event interface {
	eventType() *EventType
}

// ListEvent comes from a list container. A nil Type means a click: the
// vendor SDK omits the zero-valued code.
type ListEvent struct {
	Container string
	Index     int
	Name      string
	Type      *EventType
}

// TextEvent comes from a text container. A nil Type means a click.
type TextEvent struct {
	Container string
	Type      *EventType
}

// SysEvent is a lifecycle or gesture event from the system layer.
type SysEvent struct {
	Type *EventType
}

func (e ListEvent) eventType() *EventType { return e.Type }
func (e TextEvent) eventType() *EventType { return e.Type }
func (e SysEvent) eventType() *EventType  { return e.Type }

// Decode parses a vendor JSON payload. The event code may sit under
// "eventType", "type" or a nested "event" object, as a number or a name,
// and the whole payload may be wrapped in "jsonData" (object or string).
func Decode(data []byte) (Event, error) {
	var env struct {
		ListEvent json.RawMessage `json:"listEvent"`
		TextEvent json.RawMessage `json:"textEvent"`
		SysEvent  json.RawMessage `json:"sysEvent"`
		JSONData  json.RawMessage `json:"jsonData"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("input: cannot decode event: %w", err)
	}

	switch {
	case len(env.ListEvent) > 0 && !isNull(env.ListEvent):
		var raw struct {
			Container string `json:"containerName"`
			Index     *int   `json:"currentSelectItemIndex"`
			Name      string `json:"currentSelectItemName"`
		}
		if err := json.Unmarshal(env.ListEvent, &raw); err != nil {
			return nil, fmt.Errorf("input: bad listEvent: %w", err)
		}
		t, err := typeOf(env.ListEvent)
		if err != nil {
			return nil, err
		}
		ev := ListEvent{Container: raw.Container, Name: raw.Name, Type: t}
		if raw.Index != nil {
			ev.Index = *raw.Index
		}
		return ev, nil

	case len(env.TextEvent) > 0 && !isNull(env.TextEvent):
		var raw struct {
			Container string `json:"containerName"`
		}
		if err := json.Unmarshal(env.TextEvent, &raw); err != nil {
			return nil, fmt.Errorf("input: bad textEvent: %w", err)
		}
		t, err := typeOf(env.TextEvent)
		if err != nil {
			return nil, err
		}
		return TextEvent{Container: raw.Container, Type: t}, nil

	case len(env.SysEvent) > 0 && !isNull(env.SysEvent):
		t, err := typeOf(env.SysEvent)
		if err != nil {
			return nil, err
		}
		return SysEvent{Type: t}, nil

	case len(env.JSONData) > 0 && !isNull(env.JSONData):
		inner := []byte(env.JSONData)
		var s string
		if err := json.Unmarshal(inner, &s); err == nil {
			inner = []byte(s)
		}
		return Decode(inner)
	}
	return nil, ErrUnknownEvent
}

// typeOf finds the event code inside one event object.
func typeOf(obj json.RawMessage) (*EventType, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return nil, fmt.Errorf("input: event is not an object: %w", err)
	}
	for _, key := range []string{"eventType", "type"} {
		if raw, ok := fields[key]; ok && !isNull(raw) {
			return parseType(raw)
		}
	}
	if nested, ok := fields["event"]; ok && !isNull(nested) {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(nested, &inner); err == nil {
			for _, key := range []string{"type", "eventType"} {
				if raw, ok := inner[key]; ok && !isNull(raw) {
					return parseType(raw)
				}
			}
		}
	}
	return nil, nil
}

func parseType(raw json.RawMessage) (*EventType, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return TypePtr(EventType(n)), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("input: bad event type %s", raw)
	}
	if n, err := strconv.Atoi(s); err == nil {
		return TypePtr(EventType(n)), nil
	}
	name := strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(s)), "_EVENT")
	if t, ok := eventTypeNames[name]; ok {
		return TypePtr(t), nil
	}
	return nil, fmt.Errorf("input: unknown event type %q", s)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
