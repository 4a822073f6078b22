// Package portal is the HTTP client used to talk to the course portal.
//
// It sends every request through the caller's authenticated Session, sets the
// browser-like headers the portal expects, waits on a rate limiter and turns
// non-2xx responses into typed errors from coursemirror/pkg/errors. Listing
// pages are decoded to UTF-8 before parsing since older course pages are
// served as ISO-8859-9.
package portal
