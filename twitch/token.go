package twitch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/oauth2"
)

// Tokens is an OAuth user access token pair.
type Tokens struct {
	Access  string
	Refresh string
}

// TokenStore keeps tokens in two plain files next to the binary.
type TokenStore struct {
	userPath    string
	refreshPath string
}

func NewTokenStore(userPath, refreshPath string) *TokenStore {
	return &TokenStore{userPath: userPath, refreshPath: refreshPath}
}

// Load reads both token files. A missing access token is ErrNoToken; a
// missing refresh token is tolerated.
func (s *TokenStore) Load() (Tokens, error) {
	access, err := os.ReadFile(s.userPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Tokens{}, ErrNoToken
	}
	if err != nil {
		return Tokens{}, fmt.Errorf("twitch: read %s: %w", s.userPath, err)
	}
	t := Tokens{Access: strings.TrimSpace(string(access))}
	if t.Access == "" {
		return Tokens{}, ErrNoToken
	}
	if refresh, err := os.ReadFile(s.refreshPath); err == nil {
		t.Refresh = strings.TrimSpace(string(refresh))
	}
	return t, nil
}

// Save writes both token files with owner-only permissions.
func (s *TokenStore) Save(t Tokens) error {
	if err := os.WriteFile(s.userPath, []byte(t.Access), 0o600); err != nil {
		return err
	}
	return os.WriteFile(s.refreshPath, []byte(t.Refresh), 0o600)
}

// Validation is the response of the token validation endpoint.
type Validation struct {
	ClientID  string
	Login     string
	UserID    string
	Scopes    []string
	ExpiresIn int
}

// Validate checks an access token. Twitch requires apps to do this on start
// and hourly.
func (c *Client) Validate(ctx context.Context, access string) (Validation, error) {
	api, err := c.api(ctx)
	if err != nil {
		return Validation{}, err
	}
	ok, resp, err := api.ValidateToken(access)
	if err != nil {
		return Validation{}, fmt.Errorf("twitch: validate: %w", err)
	}
	if !ok {
		if err := responseError("validate", &resp.ResponseCommon); err != nil {
			return Validation{}, err
		}
		return Validation{}, fmt.Errorf("twitch: validate: %w", ErrUnauthorized)
	}
	return Validation{
		ClientID:  resp.Data.ClientID,
		Login:     resp.Data.Login,
		UserID:    resp.Data.UserID,
		Scopes:    resp.Data.Scopes,
		ExpiresIn: resp.Data.ExpiresIn,
	}, nil
}

func tokensFrom(t *oauth2.Token) (Tokens, error) {
	if t == nil || t.AccessToken == "" {
		return Tokens{}, errors.New("twitch: token endpoint returned no access token")
	}
	return Tokens{Access: t.AccessToken, Refresh: t.RefreshToken}, nil
}

// Refresh trades a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	src := c.oauth.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	t, err := src.Token()
	if err != nil {
		return Tokens{}, fmt.Errorf("twitch: refresh: %w", err)
	}
	return tokensFrom(t)
}

// Exchange trades an authorization code for a token pair.
func (c *Client) Exchange(ctx context.Context, code string) (Tokens, error) {
	t, err := c.oauth.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return Tokens{}, fmt.Errorf("twitch: exchange code: %w", err)
	}
	return tokensFrom(t)
}

// AuthorizeURL is the page the broadcaster opens to grant the overlay access.
func (c *Client) AuthorizeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Store returns the token store the client persists to.
func (c *Client) Store() *TokenStore { return c.store }
