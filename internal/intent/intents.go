package intent

import "strings"

// Intent labels understood by the resolver. Device intents share their
// spelling with device commands.
const (
	Wake       = "WAKE"
	VoiceSleep = "VOICE_SLEEP"
	Sleep      = "SLEEP" // alias of VoiceSleep
	LogSpeech  = "LOG_SPEECH"
	Status     = "STATUS"

	LEDOn   = "LED_ON"
	LEDOff  = "LED_OFF"
	LEDAuto = "LED_AUTO"
	FanOn   = "FAN_ON"
	FanOff  = "FAN_OFF"
	FanAuto = "FAN_AUTO"

	FanPWMPrefix = "FAN_PWM:"
	QuickPrefix  = "QUICK:"
)

// Source identifies who produced an event.
type Source string

// Event sources.
const (
	SourceAuto      Source = "auto"
	SourceDashboard Source = "dashboard"
	SourceVoice     Source = "voice"
)

// ParseSource maps a wire value to a Source. Unknown values report false.
func ParseSource(s string) (Source, bool) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceAuto:
		return SourceAuto, true
	case SourceDashboard, "manual_ui", "ui":
		return SourceDashboard, true
	case SourceVoice:
		return SourceVoice, true
	}
	return "", false
}

// QuickMode is a named fan preset.
type QuickMode struct {
	Name string
	Fan  int
}

// quickModes maps QUICK:<mode> suffixes to presets.
var quickModes = map[string]QuickMode{
	"comfort": {Name: "Comfort", Fan: 170},
	"eco":     {Name: "Eco", Fan: 70},
	"boost":   {Name: "Boost", Fan: 255},
}

// LookupQuickMode returns the preset for a QUICK mode name.
func LookupQuickMode(mode string) (QuickMode, bool) {
	q, ok := quickModes[strings.ToLower(strings.TrimSpace(mode))]
	return q, ok
}

// trainsClassifier reports whether a voice intent is used as a classifier
// label. Control words and plain speech are not.
func trainsClassifier(intent string) bool {
	switch intent {
	case Wake, VoiceSleep, LogSpeech, LEDAuto, FanAuto:
		return false
	}
	return true
}
