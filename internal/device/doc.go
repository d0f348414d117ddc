// Package device wraps the device-management tooling for the two stages
// that talk to the device directly: issuing the reboot command and polling
// for the device to reconnect afterwards.
//
// The tools are consumed strictly as opaque command-line capabilities
// through a command.Runner; no device-management protocol is parsed here.
// Timing is driven through an injectable Clock so the polling state
// machine can be tested deterministically.
package device
