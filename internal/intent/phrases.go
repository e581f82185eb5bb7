package intent

// Phrase maps an exact utterance to an intent.
type Phrase struct {
	Text   string
	Intent string
}

// DefaultWakePhrases trigger voice activation in the resolver.
var DefaultWakePhrases = []string{
	"hey vista", "hey vesta", "hi vista", "hii vista",
	"hello vista", "hello vesta", "hello", "heavy stuff",
}

// DefaultSleepPhrases return control to automatic mode.
var DefaultSleepPhrases = []string{
	"stop vista", "bye vista", "sleep", "go auto", "auto mode", "goodbye vista",
}

// DefaultListenerWakeWords are stripped from the front of transcripts.
var DefaultListenerWakeWords = []string{
	"hello", "hey", "hey vesta", "vesta", "hey vista", "hi vista", "hey there",
}

// DefaultPhrases is the interpreter's phrase table. Order matters for the
// short-input fallback, which takes the first phrase over its threshold.
var DefaultPhrases = []Phrase{
	{"turn light on", LEDOn},
	{"turn light off", LEDOff},
	{"light on", LEDOn},
	{"light off", LEDOff},
	{"turn fan on", FanOn},
	{"turn fan off", FanOff},
	{"fan on", FanOn},
	{"fan off", FanOff},
	{"set fan auto", FanAuto},
	{"auto fan", FanAuto},
	{"fan auto", FanAuto},
	{"set led auto", LEDAuto},
	{"auto led", LEDAuto},
	{"led auto", LEDAuto},
	{"auto mode", VoiceSleep},
	{"go auto", VoiceSleep},
	{"status", Status},
	{"stop vista", VoiceSleep},
	{"bye vista", VoiceSleep},
	{"stop vesta", VoiceSleep},
	{"bye vesta", VoiceSleep},
}

// mishearings rewrites words the recogniser commonly gets wrong.
var mishearings = map[string]string{
	"right": "light",
	"riht":  "light",
	"lite":  "light",
	"than":  "fan",
	"then":  "fan",
	"pan":   "fan",
	"man":   "fan",
	"van":   "fan",
	"of":    "off",
}
