package intent

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

// Default interpreter thresholds.
const (
	DefaultListenerWakeThreshold = 65.0
	DefaultIntentThreshold       = 70.0
	DefaultShortThreshold        = 62.0
	DefaultOnOffThreshold        = 70.0
	DefaultCooldown              = 600 * time.Millisecond
)

// shortMaxWords is the longest input eligible for the partial-match fallback.
const shortMaxWords = 2

var (
	wordPattern = regexp.MustCompile(`[a-zA-Z]+`)
	onPattern   = regexp.MustCompile(`\bon\b`)
	offPattern  = regexp.MustCompile(`\boff\b`)
)

// InterpreterOptions configures an Interpreter. Zero values use defaults.
type InterpreterOptions struct {
	WakeWords       []string
	WakeThreshold   float64
	IntentThreshold float64
	ShortThreshold  float64
	Cooldown        time.Duration
	Phrases         []Phrase
}

// Interpreter turns raw transcripts into voice Events.
//
// A leading wake word is stripped; a transcript that is little more than
// the wake word becomes WAKE. Anything else is mapped through the phrase
// table, then keyword detection, and otherwise reported as LOG_SPEECH.
// Mapped intents start a cooldown during which further transcripts are
// ignored.
type Interpreter struct {
	opts  InterpreterOptions
	exact map[string]string

	mu       sync.Mutex
	lastEmit time.Time
	now      func() time.Time
}

// NewInterpreter creates an Interpreter.
func NewInterpreter(opts InterpreterOptions) *Interpreter {
	if len(opts.WakeWords) == 0 {
		opts.WakeWords = DefaultListenerWakeWords
	}
	if opts.WakeThreshold <= 0 {
		opts.WakeThreshold = DefaultListenerWakeThreshold
	}
	if opts.IntentThreshold <= 0 {
		opts.IntentThreshold = DefaultIntentThreshold
	}
	if opts.ShortThreshold <= 0 {
		opts.ShortThreshold = DefaultShortThreshold
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if len(opts.Phrases) == 0 {
		opts.Phrases = DefaultPhrases
	}

	exact := make(map[string]string, len(opts.Phrases))
	for _, p := range opts.Phrases {
		if _, dup := exact[p.Text]; !dup {
			exact[p.Text] = p.Intent
		}
	}
	return &Interpreter{opts: opts, exact: exact, now: time.Now}
}

// Interpret converts a transcript into an Event. It returns false for empty
// text and for transcripts ignored by the cooldown.
func (in *Interpreter) Interpret(transcript string) (Event, bool) {
	text := strings.TrimSpace(transcript)
	if text == "" {
		return Event{}, false
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	now := in.now()

	forIntent := text
	if word, _, ok := MatchPhrase(strings.ToLower(text), in.opts.WakeWords, in.opts.WakeThreshold); ok {
		tail := stripFirst(text, word)
		if tail == "" || len(strings.Fields(tail)) < 2 {
			in.lastEmit = now
			return Event{Intent: Wake, Text: text, Source: SourceVoice}, true
		}
		forIntent = tail
	}

	if !in.lastEmit.IsZero() && now.Sub(in.lastEmit) < in.opts.Cooldown {
		return Event{}, false
	}

	if intent, ok := in.Map(forIntent); ok {
		in.lastEmit = now
		return Event{Intent: intent, Text: forIntent, Source: SourceVoice}, true
	}
	return Event{Intent: LogSpeech, Text: forIntent, Source: SourceVoice}, true
}

// Map resolves text to an intent label without wake handling or cooldown.
func (in *Interpreter) Map(text string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return "", false
	}

	if intent, ok := in.exact[t]; ok {
		return intent, true
	}

	best, bestScore := "", 0.0
	for _, p := range in.opts.Phrases {
		if s := Ratio(p.Text, t); s > bestScore {
			best, bestScore = p.Intent, s
		}
	}
	if bestScore >= in.opts.IntentThreshold {
		return best, true
	}

	if intent, ok := detectKeywords(t); ok {
		return intent, true
	}

	if len(strings.Fields(t)) <= shortMaxWords {
		for _, p := range in.opts.Phrases {
			if PartialRatio(p.Text, t) >= in.opts.ShortThreshold {
				return p.Intent, true
			}
		}
	}
	return "", false
}

// detectKeywords finds a device word and an on/off word.
func detectKeywords(t string) (string, bool) {
	words := wordPattern.FindAllString(t, -1)
	if len(words) == 0 {
		return "", false
	}
	for i, w := range words {
		if fixed, ok := mishearings[w]; ok {
			words[i] = fixed
		}
	}

	device := ""
	for _, w := range words {
		if w == "light" || w == "fan" {
			device = w
			break
		}
	}

	action := ""
	for _, w := range words {
		if PartialRatio("on", w) >= DefaultOnOffThreshold {
			action = "on"
			break
		}
		if PartialRatio("off", w) >= DefaultOnOffThreshold {
			action = "off"
			break
		}
	}
	if action == "" {
		normalised := strings.Join(words, " ")
		if onPattern.MatchString(normalised) {
			action = "on"
		}
		if offPattern.MatchString(normalised) {
			action = "off"
		}
	}

	if device == "" || action == "" {
		return "", false
	}
	switch {
	case device == "fan" && action == "on":
		return FanOn, true
	case device == "fan":
		return FanOff, true
	case action == "on":
		return LEDOn, true
	default:
		return LEDOff, true
	}
}

// stripFirst removes the first case-insensitive occurrence of word from
// text and trims the result.
func stripFirst(text, word string) string {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(word))
	loc := re.FindStringIndex(text)
	if loc == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
}
