package device

import (
	"errors"
	"testing"
)

func TestFanPWM(t *testing.T) {
	tests := []struct {
		in   int
		want Command
	}{
		{128, "FAN_PWM:128"},
		{-5, "FAN_PWM:0"},
		{400, "FAN_PWM:255"},
	}
	for _, tt := range tests {
		if got := FanPWM(tt.in); got != tt.want {
			t.Errorf("FanPWM(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCommandPWM(t *testing.T) {
	tests := []struct {
		cmd     Command
		want    int
		wantErr error
	}{
		{"FAN_PWM:0", 0, nil},
		{"FAN_PWM: 77 ", 77, nil},
		{"FAN_PWM:+12", 12, nil},
		{"FAN_PWM:-3", 0, nil},
		{"FAN_PWM:99999999999999999999999", 255, nil},
		{"FAN_PWM:-99999999999999999999999", 0, nil},
		{"FAN_PWM:", 0, ErrInvalidPWM},
		{"FAN_PWM:1.5", 0, ErrInvalidPWM},
		{"FAN_ON", 0, ErrUnknownCommand},
	}
	for _, tt := range tests {
		t.Run(string(tt.cmd), func(t *testing.T) {
			got, err := tt.cmd.PWM()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("PWM() = %d, want %d", got, tt.want)
			}
		})
	}
}
