package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// ProfileAssertion is the opaque identity assertion obtained from a
// federated provider. The identity resolver trusts it as-is; validating
// its authenticity is this integration's job.
type ProfileAssertion struct {
	Provider    string
	ProviderID  string
	Email       string
	DisplayName string
	Picture     string
}

// GoogleProvider exchanges OAuth authorization codes for profile assertions.
type GoogleProvider struct {
	oauth  *oauth2.Config
	client *http.Client
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL returns the consent-screen URL for the given anti-CSRF state.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for the user's Google profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*ProfileAssertion, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange: %w", err)
	}

	httpClient := p.client
	if httpClient == nil {
		httpClient = p.oauth.Client(ctx, token)
	}

	resp, err := httpClient.Get(googleUserinfoURL)
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo: unexpected status %d", resp.StatusCode)
	}

	var profile struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("google userinfo decode: %w", err)
	}

	return &ProfileAssertion{
		Provider:    "google",
		ProviderID:  profile.ID,
		Email:       profile.Email,
		DisplayName: profile.Name,
		Picture:     profile.Picture,
	}, nil
}
