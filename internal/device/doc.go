// Package device holds the canonical home-device state and the rules for
// changing it.
//
// The device is a microcontroller with a temperature/humidity sensor, a
// motion sensor, a smoke sensor, an LED and a PWM fan. It streams flat JSON
// frames and accepts newline-terminated text commands.
//
// # Ownership
//
// The LED and the fan each have a Mode. In ModeAuto, values reported by the
// device (or the simulator) are written into the state. In ModeManual, the
// last command wins and device-reported values for that channel are ignored.
// Sensor readings are always written.
//
// # Usage
//
//	store := device.NewStore()
//	store.SetPublisher(hub)
//
//	frame, err := device.DecodeFrame([]byte(`{"temp":22.5,"pir":1}`))
//	if err == nil {
//	    store.ApplyFrame(frame)
//	}
//
//	store.ApplyCommand(device.FanPWM(128))
//
// # Thread Safety
//
// Store is safe for concurrent use. State values are plain data; Store
// hands out deep copies.
package device
