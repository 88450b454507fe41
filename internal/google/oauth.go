package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// Profile holds the subset of the Google userinfo response the service keeps.
type Profile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// OAuth drives the authorization-code flow against Google.
type OAuth struct {
	conf *oauth2.Config
}

// NewOAuth builds the flow controller for the given client credentials and
// callback URL.
func NewOAuth(clientID, clientSecret, redirectURL string) *OAuth {
	return &OAuth{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.profile",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/calendar.readonly",
			},
		},
	}
}

// AuthURL returns the external authorization URL. Offline access and forced
// consent guarantee a refresh token is issued even on repeat logins.
func (o *OAuth) AuthURL(state string) string {
	return o.conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades the authorization code for tokens.
func (o *OAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := o.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return token, nil
}

// FetchProfile retrieves the user's profile via the userinfo endpoint using
// the freshly exchanged token.
func (o *OAuth) FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	svc, err := goauth2.NewService(ctx, option.WithTokenSource(o.conf.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}

	return &Profile{
		ID:      info.Id,
		Name:    info.Name,
		Email:   info.Email,
		Picture: info.Picture,
	}, nil
}

// TokenSource returns a refreshing token source for a stored token, used by
// the calendar client to call Google APIs on the user's behalf.
func (o *OAuth) TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	return o.conf.TokenSource(ctx, token)
}
