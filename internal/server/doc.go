// Package server exposes the HTTP surface of the service: the Google
// OAuth login flow, the session-gated calendar views and the annotation
// endpoint. All error responses are JSON bodies with an "error" field;
// auth redirects always succeed even when underlying cleanup fails.
package server
