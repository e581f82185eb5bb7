// Package simulator synthesises device frames when no device is attached.
//
// The trace is deterministic: temperature and humidity ramp up and down on
// fixed cycles, motion fires every 20th tick and toggles the LED, and the
// fan follows a discomfort index while the LED is lit. Frames go through
// the same record rule as frames read from a real device.
package simulator

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/nerrad567/vesta-core/internal/device"
)

// Defaults for the synthetic trace.
const (
	DefaultInterval  = time.Second
	DefaultStartTemp = 22.0
	DefaultStartHum  = 45.0
)

// Discomfort thresholds: the fan starts above discomfortLow and reaches
// full speed at discomfortHigh.
const (
	discomfortLow  = 28.0
	discomfortHigh = 40.0
)

// Logger defines the logging interface used by the Simulator.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// Options configures a Simulator.
type Options struct {
	Store     *device.Store
	Interval  time.Duration
	StartTemp float64
	StartHum  float64

	// OnFrame is called with each synthesised frame after it is applied.
	OnFrame func(device.Frame)

	Logger Logger
}

// Simulator produces one frame per tick.
type Simulator struct {
	store    *device.Store
	interval time.Duration
	onFrame  func(device.Frame)
	logger   Logger

	mu   sync.Mutex
	temp float64
	hum  float64
	step int
}

// New creates a Simulator. It panics if opts.Store is nil.
func New(opts Options) *Simulator {
	if opts.Store == nil {
		panic("simulator: store is required")
	}
	s := &Simulator{
		store:    opts.Store,
		interval: opts.Interval,
		onFrame:  opts.OnFrame,
		logger:   opts.Logger,
		temp:     opts.StartTemp,
		hum:      opts.StartHum,
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.temp == 0 {
		s.temp = DefaultStartTemp
	}
	if s.hum == 0 {
		s.hum = DefaultStartHum
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}
	return s
}

// DiscomfortPWM maps temperature and humidity to a fan duty cycle.
func DiscomfortPWM(temp, hum float64) int {
	d := temp + 0.1*hum
	if d <= discomfortLow {
		return 0
	}
	return device.ClampFan(int((d - discomfortLow) / (discomfortHigh - discomfortLow) * device.FanMax))
}

// Tick advances the trace by one step and applies the resulting frame.
func (s *Simulator) Tick() device.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step%10 < 5 {
		s.temp += 0.1
	} else {
		s.temp -= 0.1
	}
	if s.step%15 < 8 {
		s.hum += 0.2
	} else {
		s.hum -= 0.2
	}
	pwm := DiscomfortPWM(s.temp, s.hum)
	temp := math.Round(s.temp*10) / 10
	hum := math.Round(s.hum)
	step := s.step

	var frame device.Frame
	s.store.Mutate(func(st *device.State) {
		// The fan follows the LED as it was before this tick's toggle.
		fan := st.FanSpeed
		if st.FanMode == device.ModeAuto {
			fan = 0
			if st.LEDOn {
				fan = pwm
			}
		}

		led := st.LEDOn
		motion := false
		if st.LEDMode == device.ModeAuto && step%20 == 0 {
			motion = true
			led = !led
		}

		smoke := st.Smoke
		frame = device.Frame{
			Temperature: &temp,
			Humidity:    &hum,
			Motion:      &motion,
			Smoke:       &smoke,
			LED:         &led,
			Fan:         &fan,
		}
		st.ApplyFrame(frame)
	})
	s.step++

	if s.onFrame != nil {
		s.onFrame(frame)
	}
	return frame
}

// Run ticks once immediately, then every interval until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) {
	s.logger.Info("simulator started", "interval", s.interval)
	defer s.logger.Info("simulator stopped")

	if ctx.Err() != nil {
		return
	}
	s.Tick()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}
