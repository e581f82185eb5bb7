// Package records writes the append-only sensor, voice and action logs.
//
// A Recorder stamps each Record with the wall-clock time and fans it out to
// its sinks:
//
//   - CSVSink: one CSV file per kind, header written once
//   - HistoryRepository: action records in SQLite, queried by the API
//   - InfluxSink: sensor and action points in InfluxDB
//   - KafkaSink: every record as JSON on a Kafka topic
//
// Sink failures are logged by the Recorder and never reach the caller.
//
// # Schemas
//
//	sensor: timestamp,temp,hum,pir,smoke,led,fan
//	voice:  timestamp,text,intent
//	action: timestamp,source,intent,temp,hum,pir,smoke,led_state,fan_speed
//
// Timestamps use TimestampLayout in local time.
package records
