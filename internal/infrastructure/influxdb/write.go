package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementSensor    = "sensor_readings"
	MeasurementActuation = "actuations"
)

// WriteSensorReading records one device frame. Only the fields the frame
// carried are written; an empty field set is dropped.
//
// Example:
//
//	client.WriteSensorReading("home-001", map[string]any{"temp": 22.1, "pir": true}, time.Now())
func (c *Client) WriteSensorReading(siteID string, fields map[string]any, at time.Time) {
	if len(fields) == 0 {
		return
	}
	c.WritePointWithTime(MeasurementSensor, map[string]string{"site_id": siteID}, fields, at)
}

// WriteActuation records a committed command and the resulting actuator values.
func (c *Client) WriteActuation(siteID, source, intent string, ledOn bool, fanSpeed int, at time.Time) {
	c.WritePointWithTime(MeasurementActuation,
		map[string]string{
			"site_id": siteID,
			"source":  source,
			"intent":  intent,
		},
		map[string]any{
			"led_state": ledOn,
			"fan_speed": fanSpeed,
		},
		at,
	)
}

// WritePoint writes a custom point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a custom point with a specific timestamp.
// Dropped silently while disconnected.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
