// Package google implements the Google OAuth2 authorization-code flow:
// building the consent redirect, exchanging the returned code for tokens
// and fetching the signed-in user's profile.
package google
