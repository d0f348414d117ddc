// Package logquery runs the archive-scoped filtered log query and
// extracts the device-local GUID from the first marker line that
// carries one.
//
// The query is delegated to log(1) with a predicate constraining the
// producing process and the message contents; this package only scans the
// returned text. "No identifier found" is a distinct outcome from "the
// query itself failed", surfaced as ErrNotFound vs an ordinary error.
package logquery
