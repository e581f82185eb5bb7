// Package coordinator runs the device side of Vesta: the command dispatcher
// plus exactly one frame source.
//
// With a device port the source is a transport.Link whose frames are
// applied to the store; without one the simulator synthesises frames. Every
// frame, real or simulated, is recorded as a SensorRecord.
//
// Lifecycle:
//
//	c, err := coordinator.New(opts)
//	c.Start(ctx)
//	defer c.Stop()
package coordinator
