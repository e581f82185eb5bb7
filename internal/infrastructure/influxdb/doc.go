// Package influxdb provides InfluxDB connectivity for Vesta Core.
//
// It wraps the official influxdb-client-go v2 library. Vesta writes two
// measurements: sensor_readings (one point per device frame) and
// actuations (one point per committed command).
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteSensorReading(siteID, map[string]any{"temp": 22.1}, time.Now())
package influxdb
