package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerrad567/vesta-core/internal/infrastructure/config"
	"github.com/nerrad567/vesta-core/internal/intent"
)

var phraseCmd = &cobra.Command{
	Use:   "phrase <text>",
	Short: "Show how an utterance would be understood",
	Long: `Score an utterance against the configured wake and sleep phrases and
show which intent the transcript interpreter maps it to.

Nothing is sent to the device and no state is changed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPhrase,
}

func init() {
	rootCmd.AddCommand(phraseCmd)
}

func runPhrase(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigOrDefault()
	if err != nil {
		return printError(cmd.ErrOrStderr(), "Could not load configuration", err.Error())
	}
	text := strings.Join(args, " ")
	printPhraseReport(cmd.OutOrStdout(), cfg, text)
	return nil
}

// printPhraseReport writes the wake/sleep scores and mapped intent for text.
func printPhraseReport(w io.Writer, cfg *config.Config, text string) {
	lower := strings.ToLower(strings.TrimSpace(text))

	cyan.Fprintf(w, "Utterance: %q\n\n", text) //nolint:errcheck // terminal output

	printScores(w, "Wake phrases", lower, cfg.Voice.WakePhrases, cfg.Voice.WakeThreshold)
	printScores(w, "Sleep phrases", lower, cfg.Voice.SleepPhrases, cfg.Voice.SleepThreshold)

	interp := intent.NewInterpreter(intent.InterpreterOptions{
		WakeWords:       cfg.Voice.Listener.WakeWords,
		WakeThreshold:   cfg.Voice.Listener.WakeThreshold,
		IntentThreshold: cfg.Voice.Listener.IntentThreshold,
		ShortThreshold:  cfg.Voice.Listener.ShortThreshold,
	})
	ev, ok := interp.Interpret(text)
	fmt.Fprint(w, "Interpreted: ")
	switch {
	case !ok:
		red.Fprintln(w, "nothing") //nolint:errcheck // terminal output
	case ev.Intent == intent.LogSpeech:
		yellow.Fprintf(w, "%s (plain speech: %q)\n", ev.Intent, ev.Text) //nolint:errcheck // terminal output
	default:
		green.Fprintf(w, "%s (text: %q)\n", ev.Intent, ev.Text) //nolint:errcheck // terminal output
	}
}

func printScores(w io.Writer, title, text string, phrases []string, threshold float64) {
	fmt.Fprintf(w, "%s (threshold %.0f):\n", title, threshold)
	matched, _, ok := intent.MatchPhrase(text, phrases, threshold)
	for _, p := range phrases {
		score := 0.0
		if text != "" {
			score = intent.PartialRatio(p, text)
		}
		marker := " "
		if ok && p == matched {
			marker = "*"
		}
		scoreColour(score, threshold).Fprintf(w, "  %s %-16s %5.1f\n", marker, p, score) //nolint:errcheck // terminal output
	}
	fmt.Fprintln(w)
}
