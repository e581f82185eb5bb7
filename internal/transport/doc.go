// Package transport connects the core to the physical device.
//
// A Port is any duplex byte stream: a USB/UART serial port opened with
// OpenSerial, or a raw TCP serial bridge opened with OpenTCP. A Link owns
// the port. Its reader goroutine feeds chunks into an Extractor, decodes
// each '{...}' span with device.DecodeFrame and hands frames to a callback.
// Send writes one command per line.
//
// # Usage
//
//	port, err := transport.OpenSerial(transport.SerialConfig{Device: "/dev/ttyACM0", Baud: 9600})
//	if err != nil {
//	    return err
//	}
//	link := transport.NewLink(port, transport.LinkOptions{
//	    OnFrame: func(f device.Frame) { store.ApplyFrame(f) },
//	})
//	link.Start()
//	defer link.Close()
//
//	link.Send(ctx, "LED_ON")
package transport
