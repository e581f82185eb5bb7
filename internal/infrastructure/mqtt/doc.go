// Package mqtt provides MQTT client connectivity for Vesta Core.
//
// Vesta uses MQTT in both directions:
//   - out: the retained device snapshot (vesta/state) and named events
//     (vesta/event/voice_heard, vesta/event/action_ack)
//   - in: labelled intents (vesta/intent) and raw transcripts
//     (vesta/voice/transcript) from a separate speech process
//
// The client reconnects automatically, restores subscriptions, and publishes
// a retained online/offline status with a Last Will for crash detection.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.Intent(), 1,
//	    func(topic string, payload []byte) error {
//	        return handle(payload)
//	    })
package mqtt
