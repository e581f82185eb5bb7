package records

import (
	"context"
	"time"
)

// PointWriter is the subset of the InfluxDB client used by InfluxSink.
type PointWriter interface {
	WriteSensorReading(siteID string, fields map[string]any, at time.Time)
	WriteActuation(siteID, source, intent string, ledOn bool, fanSpeed int, at time.Time)
}

// InfluxSink mirrors sensor and action records into a time-series database.
// Voice records are not written.
type InfluxSink struct {
	writer PointWriter
	siteID string
}

// NewInfluxSink creates a sink tagging every point with siteID.
func NewInfluxSink(w PointWriter, siteID string) *InfluxSink {
	return &InfluxSink{writer: w, siteID: siteID}
}

// Write implements Sink. Writes are non-blocking; delivery errors surface
// through the client's error callback.
func (s *InfluxSink) Write(_ context.Context, e Entry) error {
	switch rec := e.Record.(type) {
	case SensorRecord:
		fields := sensorFields(rec)
		if len(fields) == 0 {
			return nil
		}
		s.writer.WriteSensorReading(s.siteID, fields, e.Time)
	case ActionRecord:
		s.writer.WriteActuation(s.siteID, rec.Source, rec.Intent, rec.LEDOn, rec.FanSpeed, e.Time)
	}
	return nil
}

func sensorFields(rec SensorRecord) map[string]any {
	f := rec.Frame
	fields := make(map[string]any, 6)
	if f.Temperature != nil {
		fields["temp"] = *f.Temperature
	}
	if f.Humidity != nil {
		fields["hum"] = *f.Humidity
	}
	if f.Motion != nil {
		fields["pir"] = *f.Motion
	}
	if f.Smoke != nil {
		fields["smoke"] = *f.Smoke
	}
	if f.LED != nil {
		fields["led"] = *f.LED
	}
	if f.Fan != nil {
		fields["fan"] = int64(*f.Fan)
	}
	return fields
}
