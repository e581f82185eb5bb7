package intent

// Event names published to the presentation layer.
const (
	EventVoiceHeard = "voice_heard"
	EventActionAck  = "action_ack"
)

// EventPublisher receives named events for the dashboard and other
// observers. PublishEvent must not block for long.
type EventPublisher interface {
	PublishEvent(name string, payload any)
}

// VoiceEvent is an announcement or echoed utterance.
type VoiceEvent struct {
	Text   string `json:"text"`
	Intent string `json:"intent,omitempty"`
	Time   string `json:"time"`
}

// ActionAck confirms a command accepted from an operator or voice.
type ActionAck struct {
	ID      string `json:"id"`
	Source  Source `json:"source"`
	Intent  string `json:"intent"`
	Command string `json:"command,omitempty"`
	Message string `json:"message"`
}

// Announcement texts.
const (
	msgVoiceActive   = "Vista: Voice active."
	msgVoiceInactive = "Vista: Voice deactivated. Returning to auto."
	msgWakeFirst     = "Vista: Please say the wake word first (e.g. 'hey vista')."
	msgNotACommand   = "Vista: I heard you, but that's not a command I know."
	msgLEDOn         = "Vista: LED On"
	msgLEDOff        = "Vista: LED Off"
	msgLEDAuto       = "Vista: LED set to Auto"
	msgFanOn         = "Vista: Fan On"
	msgFanOff        = "Vista: Fan Off"
	msgFanAuto       = "Vista: Fan set to Auto"
	msgFanSetFmt     = "Vista: Fan set to %d"
	msgQuickFmt      = "Vista: Setting fan to %s mode."
	msgUnknownFmt    = "Vista: Sorry, I don't understand '%s'"
	msgEchoPrefix    = "You: "

	// quietAutoText suppresses the *_AUTO announcement; the sender has
	// already spoken its own confirmation.
	quietAutoText = "setting auto"
)

type noopPublisher struct{}

func (noopPublisher) PublishEvent(string, any) {}
