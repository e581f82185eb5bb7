package learning

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenPattern keeps words of two or more characters.
var tokenPattern = regexp.MustCompile(`\w\w+`)

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

var seedPhrases = []struct{ text, label string }{
	{"turn light on", "LED_ON"},
	{"turn light off", "LED_OFF"},
	{"turn fan on", "FAN_ON"},
	{"turn fan off", "FAN_OFF"},
	{"set auto", "FAN_AUTO"},
}

// classCounts holds the per-label statistics of the classifier.
type classCounts struct {
	docs   int
	tokens map[string]int
	total  int
}

// classifier is an incremental multinomial naive Bayes model with Laplace
// smoothing.
type classifier struct {
	classes map[string]*classCounts
	vocab   map[string]struct{}
	docs    int
}

func newClassifier() *classifier {
	c := &classifier{
		classes: make(map[string]*classCounts),
		vocab:   make(map[string]struct{}),
	}
	for _, s := range seedPhrases {
		c.learn(s.text, s.label)
	}
	return c
}

func (c *classifier) learn(text, label string) {
	cc, ok := c.classes[label]
	if !ok {
		cc = &classCounts{tokens: make(map[string]int)}
		c.classes[label] = cc
	}
	cc.docs++
	c.docs++
	for _, tok := range tokenize(text) {
		cc.tokens[tok]++
		cc.total++
		c.vocab[tok] = struct{}{}
	}
}

// predict returns the most likely label. It reports false when no token of
// text has been seen before.
func (c *classifier) predict(text string) (string, bool) {
	var known []string
	for _, tok := range tokenize(text) {
		if _, ok := c.vocab[tok]; ok {
			known = append(known, tok)
		}
	}
	if len(known) == 0 || c.docs == 0 {
		return "", false
	}

	labels := make([]string, 0, len(c.classes))
	for label := range c.classes {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	vocab := float64(len(c.vocab))
	best, bestScore := "", math.Inf(-1)
	for _, label := range labels {
		cc := c.classes[label]
		score := math.Log(float64(cc.docs) / float64(c.docs))
		denom := float64(cc.total) + vocab
		for _, tok := range known {
			score += math.Log((float64(cc.tokens[tok]) + 1) / denom)
		}
		if score > bestScore {
			best, bestScore = label, score
		}
	}
	return best, true
}
