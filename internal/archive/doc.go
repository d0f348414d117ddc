// Package archive owns the transient syslog archive: a scoped temporary
// directory that is guaranteed to be removed on every exit path, the
// external collection command that fills it, and the size validation that
// guards against silently truncated captures.
package archive
