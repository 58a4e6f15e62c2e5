// Package api exposes filters, dealers, saved query trees, studies and pack
// imports over HTTP. Handlers decode and validate JSON bodies, call the
// services and map service errors to status codes.
package api
