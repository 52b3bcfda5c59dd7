package flickr

import (
	"fmt"
	"net/url"

	masci "gopkg.in/masci/flickr.v3"
)

// AccessToken is the result of a completed OAuth authorisation
type AccessToken struct {
	Token    string
	Secret   string
	NSID     string
	Username string
	FullName string
}

// Authorizer runs the OAuth 1.0a out-of-band flow: the user opens the
// authorisation URL, approves read access and pastes back a verifier code.
type Authorizer struct {
	client  *masci.FlickrClient
	request *masci.RequestToken
}

// NewAuthorizer creates an Authorizer for the application key pair
func NewAuthorizer(apiKey, apiSecret string) *Authorizer {
	return &Authorizer{client: masci.NewFlickrClient(apiKey, apiSecret)}
}

// Begin obtains a request token and returns the URL the user must visit
func (a *Authorizer) Begin() (string, error) {
	token, err := masci.GetRequestToken(a.client)
	if err != nil {
		return "", fmt.Errorf("failed to get request token: %w", err)
	}
	a.request = token

	authURL, err := masci.GetAuthorizeUrl(a.client, token)
	if err != nil {
		return "", fmt.Errorf("failed to build authorisation URL: %w", err)
	}

	return withReadPerms(authURL), nil
}

// Complete exchanges the verifier code for an access token
func (a *Authorizer) Complete(verifier string) (*AccessToken, error) {
	if a.request == nil {
		return nil, fmt.Errorf("authorisation has not been started")
	}

	token, err := masci.GetOAuthAccessToken(a.client, a.request, verifier)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange verifier for access token: %w", err)
	}

	return &AccessToken{
		Token:    token.OAuthToken,
		Secret:   token.OAuthTokenSecret,
		NSID:     token.UserNsid,
		Username: token.Username,
		FullName: token.Fullname,
	}, nil
}

// withReadPerms rewrites the authorisation URL to request read access only
func withReadPerms(authURL string) string {
	u, err := url.Parse(authURL)
	if err != nil {
		return authURL
	}
	q := u.Query()
	q.Set("perms", "read")
	u.RawQuery = q.Encode()
	return u.String()
}
