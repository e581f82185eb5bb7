package records

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/vesta-core/internal/device"
)

// TimestampLayout is the timestamp format written to every log.
const TimestampLayout = "2006-01-02 15:04:05"

// Kind names a record family. Each kind has its own destination and schema.
type Kind string

// Record kinds.
const (
	KindSensor Kind = "sensor"
	KindVoice  Kind = "voice"
	KindAction Kind = "action"
)

// schemas lists the columns of each kind after the timestamp.
var schemas = map[Kind][]string{
	KindSensor: {"temp", "hum", "pir", "smoke", "led", "fan"},
	KindVoice:  {"text", "intent"},
	KindAction: {"source", "intent", "temp", "hum", "pir", "smoke", "led_state", "fan_speed"},
}

// Header returns the full header row for kind, starting with "timestamp".
func Header(kind Kind) []string {
	cols, ok := schemas[kind]
	if !ok {
		return nil
	}
	return append([]string{"timestamp"}, cols...)
}

// Record is one append-only log entry without its timestamp.
type Record interface {
	Kind() Kind

	// Values returns the column values by name. Missing columns are written
	// empty; names outside the schema are dropped.
	Values() map[string]string
}

// Entry is a Record stamped with its write time.
type Entry struct {
	Time   time.Time
	Record Record
}

// Row returns the entry formatted in schema order.
func (e Entry) Row() []string {
	cols := schemas[e.Record.Kind()]
	values := e.Record.Values()
	row := make([]string, 0, len(cols)+1)
	row = append(row, e.Time.Format(TimestampLayout))
	for _, c := range cols {
		row = append(row, values[c])
	}
	return row
}

// SensorRecord logs one frame as received or synthesised.
type SensorRecord struct {
	Frame device.Frame
}

// Kind implements Record.
func (SensorRecord) Kind() Kind { return KindSensor }

// Values implements Record.
func (r SensorRecord) Values() map[string]string {
	f := r.Frame
	v := make(map[string]string, 6)
	if f.Temperature != nil {
		v["temp"] = formatFloat(*f.Temperature)
	}
	if f.Humidity != nil {
		v["hum"] = formatFloat(*f.Humidity)
	}
	if f.Motion != nil {
		v["pir"] = formatFlag(*f.Motion)
	}
	if f.Smoke != nil {
		v["smoke"] = formatFlag(*f.Smoke)
	}
	if f.LED != nil {
		v["led"] = strconv.FormatBool(*f.LED)
	}
	if f.Fan != nil {
		v["fan"] = strconv.Itoa(*f.Fan)
	}
	return v
}

// VoiceRecord logs heard text and the intent it resolved to, if any.
type VoiceRecord struct {
	Text   string
	Intent string
}

// Kind implements Record.
func (VoiceRecord) Kind() Kind { return KindVoice }

// Values implements Record.
func (r VoiceRecord) Values() map[string]string {
	return map[string]string{"text": r.Text, "intent": r.Intent}
}

// ActionRecord logs a committed command: who asked, what the sensors read
// when the decision was made, and the actuator values that resulted.
type ActionRecord struct {
	ID          string   `json:"id"`
	Source      string   `json:"source"`
	Intent      string   `json:"intent"`
	Command     string   `json:"command"`
	Temperature *float64 `json:"temp"`
	Humidity    *float64 `json:"hum"`
	Motion      bool     `json:"pir"`
	Smoke       bool     `json:"smoke"`
	LEDOn       bool     `json:"led_state"`
	FanSpeed    int      `json:"fan_speed"`
}

// NewActionRecord builds an ActionRecord with a fresh ID. Sensor fields come
// from decision, actuator fields from result.
func NewActionRecord(source, intent string, cmd device.Command, decision, result device.State) ActionRecord {
	decision = decision.Clone()
	return ActionRecord{
		ID:          uuid.NewString(),
		Source:      source,
		Intent:      intent,
		Command:     string(cmd),
		Temperature: decision.Temperature,
		Humidity:    decision.Humidity,
		Motion:      decision.Motion,
		Smoke:       decision.Smoke,
		LEDOn:       result.LEDOn,
		FanSpeed:    result.FanSpeed,
	}
}

// Kind implements Record.
func (ActionRecord) Kind() Kind { return KindAction }

// Values implements Record.
func (r ActionRecord) Values() map[string]string {
	v := map[string]string{
		"source":    r.Source,
		"intent":    r.Intent,
		"pir":       formatFlag(r.Motion),
		"smoke":     formatFlag(r.Smoke),
		"led_state": strconv.FormatBool(r.LEDOn),
		"fan_speed": strconv.Itoa(r.FanSpeed),
	}
	if r.Temperature != nil {
		v["temp"] = formatFloat(*r.Temperature)
	}
	if r.Humidity != nil {
		v["hum"] = formatFloat(*r.Humidity)
	}
	return v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
