package device

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Command is a line written to the device. The vocabulary is closed.
type Command string

// Fixed commands.
const (
	LEDOn   Command = "LED_ON"
	LEDOff  Command = "LED_OFF"
	LEDAuto Command = "LED_AUTO"
	FanOn   Command = "FAN_ON"
	FanOff  Command = "FAN_OFF"
	FanAuto Command = "FAN_AUTO"
)

// FanPWMPrefix starts a parameterised fan speed command, e.g. "FAN_PWM:128".
const FanPWMPrefix = "FAN_PWM:"

// FanPWM builds a FAN_PWM command with v clamped to [0,255].
func FanPWM(v int) Command {
	return Command(fmt.Sprintf("%s%d", FanPWMPrefix, ClampFan(v)))
}

// IsPWM reports whether c has the FAN_PWM prefix, parseable or not.
func (c Command) IsPWM() bool {
	return strings.HasPrefix(string(c), FanPWMPrefix)
}

// PWM returns the clamped fan value carried by a FAN_PWM command.
// Out-of-range integers clamp; anything else is ErrInvalidPWM.
func (c Command) PWM() (int, error) {
	if !c.IsPWM() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, string(c))
	}
	raw := strings.TrimSpace(strings.TrimPrefix(string(c), FanPWMPrefix))
	v, err := strconv.Atoi(raw)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			if strings.HasPrefix(raw, "-") {
				return FanMin, nil
			}
			return FanMax, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidPWM, raw)
	}
	return ClampFan(v), nil
}

// String implements fmt.Stringer.
func (c Command) String() string {
	return string(c)
}
