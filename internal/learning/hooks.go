package learning

// Hooks receives training samples. Both calls must return quickly; the
// sample is learned from in the background.
type Hooks interface {
	TrainRegressor(temp, hum float64, ledOn, motion bool, fan int) error
	TrainClassifier(text, label string) error
}

// Predictor answers model queries. Predictions never block on training.
type Predictor interface {
	PredictFan(temp, hum float64, ledOn, motion bool) int
	PredictIntent(text string) (string, bool)
}

// Noop discards samples and predicts nothing. It is used when learning is
// disabled.
type Noop struct{}

// TrainRegressor implements Hooks.
func (Noop) TrainRegressor(float64, float64, bool, bool, int) error { return nil }

// TrainClassifier implements Hooks.
func (Noop) TrainClassifier(string, string) error { return nil }

// PredictFan implements Predictor.
func (Noop) PredictFan(float64, float64, bool, bool) int { return 0 }

// PredictIntent implements Predictor.
func (Noop) PredictIntent(string) (string, bool) { return "", false }
