package learning

import "math"

const (
	numFeatures = 4

	regressorRate  = 0.01
	regressorL2    = 0.0001
	bootstrapEpoch = 500
)

// scaler standardises features with running means and variances
// (Welford's algorithm).
type scaler struct {
	n    float64
	mean [numFeatures]float64
	m2   [numFeatures]float64
}

func (s *scaler) observe(x [numFeatures]float64) {
	s.n++
	for i, v := range x {
		d := v - s.mean[i]
		s.mean[i] += d / s.n
		s.m2[i] += d * (v - s.mean[i])
	}
}

func (s *scaler) transform(x [numFeatures]float64) [numFeatures]float64 {
	var out [numFeatures]float64
	for i, v := range x {
		std := 1.0
		if s.n > 0 {
			if sd := math.Sqrt(s.m2[i] / s.n); sd > 0 {
				std = sd
			}
		}
		out[i] = (v - s.mean[i]) / std
	}
	return out
}

// regressor is a linear model trained by stochastic gradient descent on
// squared error with a small L2 penalty.
type regressor struct {
	scale   scaler
	weights [numFeatures]float64
	bias    float64
	updates uint64
}

func features(temp, hum float64, ledOn, motion bool) [numFeatures]float64 {
	return [numFeatures]float64{temp, hum, boolFeature(ledOn), boolFeature(motion)}
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var (
	seedFeatures = [][numFeatures]float64{
		{25, 40, 1, 1},
		{22, 45, 1, 0},
		{30, 60, 1, 1},
		{20, 30, 0, 0},
	}
	seedTargets = []float64{0, 0, 200, 0}
)

func newRegressor() *regressor {
	r := &regressor{}
	for _, x := range seedFeatures {
		r.scale.observe(x)
	}
	for epoch := 0; epoch < bootstrapEpoch; epoch++ {
		for i, x := range seedFeatures {
			r.step(r.scale.transform(x), seedTargets[i])
		}
	}
	return r
}

// learn updates the scaler with x and takes one gradient step.
func (r *regressor) learn(x [numFeatures]float64, y float64) {
	r.scale.observe(x)
	r.step(r.scale.transform(x), y)
}

func (r *regressor) step(xs [numFeatures]float64, y float64) {
	err := r.raw(xs) - y
	for i := range r.weights {
		r.weights[i] -= regressorRate * (err*xs[i] + regressorL2*r.weights[i])
	}
	r.bias -= regressorRate * err
	r.updates++
}

func (r *regressor) raw(xs [numFeatures]float64) float64 {
	sum := r.bias
	for i, w := range r.weights {
		sum += w * xs[i]
	}
	return sum
}

// predict returns the rounded prediction clamped to the fan range.
func (r *regressor) predict(x [numFeatures]float64) int {
	v := math.Round(r.raw(r.scale.transform(x)))
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 255:
		return 255
	}
	return int(v)
}
