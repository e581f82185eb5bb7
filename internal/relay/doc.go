// Package relay connects the core to its outer surfaces.
//
// Publisher pushes state snapshots and named events to the dashboard hub
// and MQTT. Subscriber takes labelled intents and raw transcripts from MQTT
// and hands them to the resolver.
package relay
