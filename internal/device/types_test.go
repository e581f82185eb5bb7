package device

import "testing"

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }
func intPtr(v int) *int           { return &v }

func TestInitialState(t *testing.T) {
	s := InitialState()
	if s.Temperature != nil || s.Humidity != nil {
		t.Error("readings should start unknown")
	}
	if s.LEDOn || s.FanSpeed != 0 || s.Motion || s.Smoke {
		t.Errorf("actuators and sensors should start off: %+v", s)
	}
	if s.LEDMode != ModeAuto || s.FanMode != ModeAuto {
		t.Errorf("modes = %s/%s, want auto/auto", s.LEDMode, s.FanMode)
	}
}

func TestClampFan(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-20, 0},
		{0, 0},
		{128, 128},
		{255, 255},
		{300, 255},
	}
	for _, tt := range tests {
		if got := ClampFan(tt.in); got != tt.want {
			t.Errorf("ClampFan(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestStateApplyFrame_ManualChannelsIgnored(t *testing.T) {
	s := InitialState()
	s.LEDMode = ModeManual
	s.LEDOn = true
	s.FanMode = ModeManual
	s.FanSpeed = 200

	changed := s.ApplyFrame(Frame{
		Temperature: floatPtr(21.5),
		Motion:      boolPtr(true),
		LED:         boolPtr(false),
		Fan:         intPtr(0),
	})

	if !changed {
		t.Fatal("expected change from readings")
	}
	if s.Temperature == nil || *s.Temperature != 21.5 {
		t.Errorf("temperature = %v, want 21.5", s.Temperature)
	}
	if !s.Motion {
		t.Error("motion should be set")
	}
	if !s.LEDOn || s.FanSpeed != 200 {
		t.Errorf("manual channels overwritten: led=%v fan=%d", s.LEDOn, s.FanSpeed)
	}
}

func TestStateApplyFrame_AutoChannels(t *testing.T) {
	s := InitialState()
	if !s.ApplyFrame(Frame{LED: boolPtr(true), Fan: intPtr(180)}) {
		t.Fatal("expected change")
	}
	if !s.LEDOn || s.FanSpeed != 180 {
		t.Errorf("auto channels not applied: led=%v fan=%d", s.LEDOn, s.FanSpeed)
	}
}

func TestStateApplyFrame_Empty(t *testing.T) {
	s := InitialState()
	if s.ApplyFrame(Frame{}) {
		t.Error("empty frame should not report change")
	}
}

func TestStateApplyCommand(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		ok      bool
		ledOn   bool
		ledMode Mode
		fan     int
		fanMode Mode
	}{
		{"led on", LEDOn, true, true, ModeManual, 0, ModeAuto},
		{"led off", LEDOff, true, false, ModeManual, 0, ModeAuto},
		{"led auto", LEDAuto, true, false, ModeAuto, 0, ModeAuto},
		{"fan on", FanOn, true, false, ModeAuto, 255, ModeManual},
		{"fan off", FanOff, true, false, ModeAuto, 0, ModeManual},
		{"fan auto", FanAuto, true, false, ModeAuto, 0, ModeAuto},
		{"pwm", "FAN_PWM:128", true, false, ModeAuto, 128, ModeManual},
		{"pwm clamped", "FAN_PWM:999", true, false, ModeAuto, 255, ModeManual},
		{"pwm garbage", "FAN_PWM:abc", false, false, ModeAuto, 0, ModeAuto},
		{"unknown", "DANCE", false, false, ModeAuto, 0, ModeAuto},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := InitialState()
			if got := s.ApplyCommand(tt.cmd); got != tt.ok {
				t.Fatalf("ApplyCommand(%q) = %v, want %v", tt.cmd, got, tt.ok)
			}
			if s.LEDOn != tt.ledOn || s.LEDMode != tt.ledMode {
				t.Errorf("led = %v/%s, want %v/%s", s.LEDOn, s.LEDMode, tt.ledOn, tt.ledMode)
			}
			if s.FanSpeed != tt.fan || s.FanMode != tt.fanMode {
				t.Errorf("fan = %d/%s, want %d/%s", s.FanSpeed, s.FanMode, tt.fan, tt.fanMode)
			}
		})
	}
}

func TestStateClone_Independent(t *testing.T) {
	s := InitialState()
	s.Temperature = floatPtr(20)
	c := s.Clone()
	*c.Temperature = 30
	if *s.Temperature != 20 {
		t.Error("clone shares temperature pointer")
	}
}
