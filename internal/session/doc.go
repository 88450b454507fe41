// Package session implements the server-side session store backing the
// web UI. Sessions are keyed by a random ID carried in an HMAC-signed
// cookie; the profile and OAuth tokens of the signed-in user live only
// on the server side.
package session
