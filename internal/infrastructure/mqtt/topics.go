package mqtt

import "fmt"

// TopicPrefix is the root of every Vesta topic.
const TopicPrefix = "vesta"

// Topics provides builders for Vesta MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.Event("voice_heard") // "vesta/event/voice_heard"
type Topics struct{}

// State returns the retained device snapshot topic.
//
// Example: vesta/state
func (Topics) State() string {
	return TopicPrefix + "/state"
}

// Event returns the topic for a named event.
//
// Example: vesta/event/action_ack
func (Topics) Event(name string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, name)
}

// Intent returns the inbound topic for labelled intents
// ({"intent":..., "text":..., "source":...}).
//
// Example: vesta/intent
func (Topics) Intent() string {
	return TopicPrefix + "/intent"
}

// Transcript returns the inbound topic for raw speech transcripts.
//
// Example: vesta/voice/transcript
func (Topics) Transcript() string {
	return TopicPrefix + "/voice/transcript"
}

// SystemStatus returns the system status topic (online/offline, LWT).
//
// Example: vesta/system/status
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}
