package playlog

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-msgpack/v2/codec"
)

var ErrMalformedTick = errors.New("malformed tick")

func newHandle() *codec.MsgpackHandle {
	return &codec.MsgpackHandle{WriteExt: true}
}

// EncodeEvent serializes a single event tuple.
func EncodeEvent(e Event) ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, newHandle()).Encode([]any(e)); err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return out, nil
}

// DecodeEvent parses bytes produced by EncodeEvent. Numeric fields come back
// normalized: integers as int, everything else as float64.
func DecodeEvent(b []byte) (Event, error) {
	var raw []any
	if err := codec.NewDecoderBytes(b, newHandle()).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return Event(normalizeSlice(raw)), nil
}

// EncodeTick serializes a tick as [age, [event...]].
func EncodeTick(t Tick) ([]byte, error) {
	events := make([]any, len(t.Events))
	for i, e := range t.Events {
		events[i] = []any(e)
	}
	var out []byte
	if err := codec.NewEncoderBytes(&out, newHandle()).Encode([]any{t.Age, events}); err != nil {
		return nil, fmt.Errorf("encode tick: %w", err)
	}
	return out, nil
}

// DecodeTick parses bytes produced by EncodeTick.
func DecodeTick(b []byte) (Tick, error) {
	var raw []any
	if err := codec.NewDecoderBytes(b, newHandle()).Decode(&raw); err != nil {
		return Tick{}, fmt.Errorf("decode tick: %w", err)
	}
	if len(raw) < 1 {
		return Tick{}, ErrMalformedTick
	}
	age, ok := Int(raw[0])
	if !ok {
		return Tick{}, fmt.Errorf("%w: age %v", ErrMalformedTick, raw[0])
	}
	t := Tick{Age: age}
	if len(raw) < 2 || raw[1] == nil {
		return t, nil
	}
	list, ok := raw[1].([]any)
	if !ok {
		return Tick{}, fmt.Errorf("%w: events %T", ErrMalformedTick, raw[1])
	}
	t.Events = make([]Event, 0, len(list))
	for i, item := range list {
		ev, ok := item.([]any)
		if !ok {
			return Tick{}, fmt.Errorf("%w: event %d is %T", ErrMalformedTick, i, item)
		}
		t.Events = append(t.Events, Event(normalizeSlice(ev)))
	}
	return t, nil
}

func normalizeSlice(in []any) []any {
	for i, v := range in {
		in[i] = normalize(v)
	}
	return in
}

func normalize(v any) any {
	switch n := v.(type) {
	case []byte:
		return string(n)
	case []any:
		return normalizeSlice(n)
	case map[any]any:
		out := make(map[string]any, len(n))
		for k, val := range n {
			ks, ok := String(k)
			if !ok {
				ks = fmt.Sprint(k)
			}
			out[ks] = normalize(val)
		}
		return out
	case float32, float64:
		return v
	}
	if i, ok := Int(v); ok {
		return i
	}
	return v
}
