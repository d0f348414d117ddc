// Package pipeline sequences the four recovery stages — reboot, wait,
// collect, extract — short-circuiting to failure as soon as one stage
// fails. It owns the archive scope, guaranteeing the transient directory
// is removed on every exit path.
//
// The pipeline is strictly sequential: no goroutines, no retries, no
// resumption from an intermediate stage.
package pipeline
