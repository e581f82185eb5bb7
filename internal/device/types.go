package device

// Mode says who owns an actuator channel.
type Mode string

const (
	// ModeAuto lets device frames (and the simulator) drive the channel.
	ModeAuto Mode = "auto"

	// ModeManual pins the channel to the last operator or voice command.
	ModeManual Mode = "manual"
)

// Fan speed bounds (8-bit PWM).
const (
	FanMin = 0
	FanMax = 255
)

// State is the canonical snapshot of sensors and actuators.
//
// Temperature and Humidity are nil until the first frame reports them.
type State struct {
	Temperature *float64 `json:"temp"`
	Humidity    *float64 `json:"hum"`
	Motion      bool     `json:"pir"`
	Smoke       bool     `json:"smoke"`
	LEDOn       bool     `json:"led"`
	FanSpeed    int      `json:"fan"`
	LEDMode     Mode     `json:"led_mode"`
	FanMode     Mode     `json:"fan_mode"`
}

// InitialState is the state at process start: no readings, everything off, both channels AUTO.
func InitialState() State {
	return State{LEDMode: ModeAuto, FanMode: ModeAuto}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	if s.Temperature != nil {
		v := *s.Temperature
		out.Temperature = &v
	}
	if s.Humidity != nil {
		v := *s.Humidity
		out.Humidity = &v
	}
	return out
}

// HasClimate reports whether both temperature and humidity are known.
func (s State) HasClimate() bool {
	return s.Temperature != nil && s.Humidity != nil
}

// ClampFan limits v to [FanMin, FanMax].
func ClampFan(v int) int {
	switch {
	case v < FanMin:
		return FanMin
	case v > FanMax:
		return FanMax
	default:
		return v
	}
}

// ApplyFrame applies a sensor frame under the record rule: readings always
// overwrite, while led and fan only overwrite channels in ModeAuto.
// Returns true if any field was written.
func (s *State) ApplyFrame(f Frame) bool {
	changed := false
	if f.Temperature != nil {
		v := *f.Temperature
		s.Temperature = &v
		changed = true
	}
	if f.Humidity != nil {
		v := *f.Humidity
		s.Humidity = &v
		changed = true
	}
	if f.Motion != nil {
		s.Motion = *f.Motion
		changed = true
	}
	if f.Smoke != nil {
		s.Smoke = *f.Smoke
		changed = true
	}
	if f.LED != nil && s.LEDMode == ModeAuto {
		s.LEDOn = *f.LED
		changed = true
	}
	if f.Fan != nil && s.FanMode == ModeAuto {
		s.FanSpeed = ClampFan(*f.Fan)
		changed = true
	}
	return changed
}

// ApplyCommand applies a command locally, as the device itself would.
// Unknown commands and unparseable FAN_PWM values leave s untouched and
// return false.
func (s *State) ApplyCommand(c Command) bool {
	switch c {
	case LEDOn, LEDOff:
		s.LEDOn = c == LEDOn
		s.LEDMode = ModeManual
	case LEDAuto:
		s.LEDMode = ModeAuto
	case FanOn:
		s.FanSpeed = FanMax
		s.FanMode = ModeManual
	case FanOff:
		s.FanSpeed = FanMin
		s.FanMode = ModeManual
	case FanAuto:
		s.FanMode = ModeAuto
	default:
		v, err := c.PWM()
		if err != nil {
			return false
		}
		s.FanSpeed = v
		s.FanMode = ModeManual
	}
	return true
}
