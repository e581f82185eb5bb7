package device

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Frame is one decoded sensor record. Nil fields were absent from the wire.
type Frame struct {
	Temperature *float64 `json:"temp,omitempty"`
	Humidity    *float64 `json:"hum,omitempty"`
	Motion      *bool    `json:"pir,omitempty"`
	Smoke       *bool    `json:"smoke,omitempty"`
	LED         *bool    `json:"led,omitempty"`
	Fan         *int     `json:"fan,omitempty"`

	// keys counts the members of the decoded object, known or not.
	keys int
}

// Empty reports whether the frame carries no field at all. A decoded
// object with only unknown keys is not empty; it still counts as a reading.
func (f Frame) Empty() bool {
	return f.keys == 0 && !f.Known()
}

// Known reports whether the frame carries at least one recognised field.
func (f Frame) Known() bool {
	return f.Temperature != nil || f.Humidity != nil || f.Motion != nil ||
		f.Smoke != nil || f.LED != nil || f.Fan != nil
}

// DecodeFrame parses a flat JSON object from the device.
//
// Firmware sends pir/smoke as 0|1 and led as a bool, but either form is
// accepted for all three. Unknown keys and values of the wrong type are
// ignored. The fan value is clamped.
func DecodeFrame(data []byte) (Frame, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}
	if raw == nil {
		return Frame{}, fmt.Errorf("%w: not an object", ErrInvalidFrame)
	}

	f := Frame{keys: len(raw)}
	if v, ok := decodeNumber(raw["temp"]); ok {
		f.Temperature = &v
	}
	if v, ok := decodeNumber(raw["hum"]); ok {
		f.Humidity = &v
	}
	if v, ok := decodeFlag(raw["pir"]); ok {
		f.Motion = &v
	}
	if v, ok := decodeFlag(raw["smoke"]); ok {
		f.Smoke = &v
	}
	if v, ok := decodeFlag(raw["led"]); ok {
		f.LED = &v
	}
	if v, ok := decodeNumber(raw["fan"]); ok {
		fan := clampFanFloat(v)
		f.Fan = &fan
	}
	return f, nil
}

// clampFanFloat clamps before converting so values outside the int range
// saturate instead of wrapping.
func clampFanFloat(v float64) int {
	switch {
	case v >= FanMax:
		return FanMax
	case v <= FanMin:
		return FanMin
	default:
		return int(v)
	}
}

func decodeNumber(msg json.RawMessage) (float64, bool) {
	if len(msg) == 0 {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(msg, &n); err != nil {
		return 0, false
	}
	v, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return v, true
}

func decodeFlag(msg json.RawMessage) (bool, bool) {
	if len(msg) == 0 {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(msg, &b); err == nil {
		return b, true
	}
	if v, ok := decodeNumber(msg); ok {
		return v != 0, true
	}
	return false, false
}
