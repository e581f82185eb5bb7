// Package dispatch drains queued device commands onto the device link.
//
// Exactly one Dispatcher runs per process. Commands go to the Sender when
// one is attached; otherwise, or when the write fails, the dispatcher
// applies the command to the device.Store as the device would have, so the
// state stays consistent without hardware.
package dispatch
