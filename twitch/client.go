package twitch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nicklaw5/helix/v2"
	"golang.org/x/oauth2"
	twitchauth "golang.org/x/oauth2/twitch"
)

var (
	ErrUnauthorized = errors.New("twitch: unauthorized")
	ErrNoToken      = errors.New("twitch: no stored token")
)

const (
	DefaultEventSubURL = "wss://eventsub.wss.twitch.tv/ws"
	DefaultHelixURL    = helix.DefaultAPIBaseURL
)

// Config describes the application and the account the overlay runs as.
type Config struct {
	ClientID         string
	ClientSecret     string
	BroadcasterLogin string
	RedirectURL      string
	UserTokenFile    string
	RefreshTokenFile string
	EventSubURL      string
	HelixURL         string
	Subscriptions    []SubscriptionType
	HTTPClient       *http.Client
}

func (c *Config) setDefaults() {
	if c.EventSubURL == "" {
		c.EventSubURL = DefaultEventSubURL
	}
	if c.HelixURL == "" {
		c.HelixURL = DefaultHelixURL
	}
	if c.RedirectURL == "" {
		c.RedirectURL = "http://localhost:3000"
	}
	if c.UserTokenFile == "" {
		c.UserTokenFile = ".user_token"
	}
	if c.RefreshTokenFile == "" {
		c.RefreshTokenFile = ".refresh_token"
	}
	if len(c.Subscriptions) == 0 {
		c.Subscriptions = DefaultSubscriptions
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
}

// APIError is a non-2xx response from Helix.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twitch: api status %d: %s", e.Status, e.Message)
}

// Client talks to the Twitch APIs on behalf of one user token. OAuth goes
// through x/oauth2 and Helix calls through the helix client.
type Client struct {
	cfg    Config
	oauth  *oauth2.Config
	store  *TokenStore
	mu     sync.Mutex
	tokens Tokens
}

func NewClient(cfg Config) *Client {
	cfg.setDefaults()
	endpoint := twitchauth.Endpoint
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	return &Client{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
		},
		store: NewTokenStore(cfg.UserTokenFile, cfg.RefreshTokenFile),
	}
}

func (c *Client) Config() Config { return c.cfg }

// SetTokens replaces the tokens used for API calls.
func (c *Client) SetTokens(t Tokens) {
	c.mu.Lock()
	c.tokens = t
	c.mu.Unlock()
}

func (c *Client) currentTokens() Tokens {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

// oauthContext makes x/oauth2 use the configured HTTP client.
func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.cfg.HTTPClient)
}

// api returns a helix client bound to ctx and the current access token. It
// has no refresh token, so 401s come back to call, which refreshes through
// oauth2.
func (c *Client) api(ctx context.Context) (*helix.Client, error) {
	api, err := helix.NewClientWithContext(ctx, &helix.Options{
		ClientID:        c.cfg.ClientID,
		UserAccessToken: c.currentTokens().Access,
		APIBaseURL:      c.cfg.HelixURL,
		HTTPClient:      c.cfg.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("twitch: helix client: %w", err)
	}
	return api, nil
}

// Authenticate loads stored tokens and makes sure the access token is valid,
// refreshing and persisting it when Twitch rejects it.
func (c *Client) Authenticate(ctx context.Context) (Validation, error) {
	tokens, err := c.store.Load()
	if err != nil {
		return Validation{}, err
	}
	c.SetTokens(tokens)

	v, err := c.Validate(ctx, tokens.Access)
	if errors.Is(err, ErrUnauthorized) {
		if err := c.refresh(ctx); err != nil {
			return Validation{}, err
		}
		v, err = c.Validate(ctx, c.currentTokens().Access)
	}
	if err != nil {
		return Validation{}, err
	}
	if v.ClientID != "" && c.cfg.ClientID != "" && v.ClientID != c.cfg.ClientID {
		return Validation{}, fmt.Errorf("twitch: token belongs to client %s, configured %s", v.ClientID, c.cfg.ClientID)
	}
	return v, nil
}

func (c *Client) refresh(ctx context.Context) error {
	refreshToken := c.currentTokens().Refresh
	if refreshToken == "" {
		return fmt.Errorf("twitch: refresh: %w", ErrNoToken)
	}
	tokens, err := c.Refresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	c.SetTokens(tokens)
	if err := c.store.Save(tokens); err != nil {
		return fmt.Errorf("twitch: save refreshed token: %w", err)
	}
	return nil
}

// call runs one Helix request and retries it once after a token refresh when
// Twitch answers 401.
func (c *Client) call(ctx context.Context, op string, fn func(*helix.Client) (*helix.ResponseCommon, error)) error {
	for attempt := 0; ; attempt++ {
		api, err := c.api(ctx)
		if err != nil {
			return err
		}
		resp, err := fn(api)
		if err != nil {
			return fmt.Errorf("twitch: %s: %w", op, err)
		}
		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			if rerr := c.refresh(ctx); rerr != nil {
				return fmt.Errorf("twitch: %s: %w (refresh: %v)", op, ErrUnauthorized, rerr)
			}
			continue
		}
		return responseError(op, resp)
	}
}

func responseError(op string, resp *helix.ResponseCommon) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("twitch: %s: %w", op, ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg := resp.ErrorMessage
		if msg == "" {
			msg = resp.Error
		}
		return fmt.Errorf("twitch: %s: %w", op, &APIError{Status: resp.StatusCode, Message: msg})
	}
	return nil
}

// CreateSubscription subscribes the websocket session to typ.
func (c *Client) CreateSubscription(ctx context.Context, typ SubscriptionType, sessionID, broadcasterID, userID string) error {
	sub := &helix.EventSubSubscription{
		Type:      string(typ),
		Version:   typ.version(),
		Condition: typ.condition(broadcasterID, userID),
		Transport: helix.EventSubTransport{
			Method:    "websocket",
			SessionID: sessionID,
		},
	}
	return c.call(ctx, "subscribe "+string(typ), func(api *helix.Client) (*helix.ResponseCommon, error) {
		resp, err := api.CreateEventSubSubscription(sub)
		if err != nil {
			return nil, err
		}
		return &resp.ResponseCommon, nil
	})
}

// SendChatMessage posts msg to the broadcaster's chat as sender.
func (c *Client) SendChatMessage(ctx context.Context, broadcasterID, senderID, msg string) error {
	var sent []helix.ChatMessage
	err := c.call(ctx, "send chat", func(api *helix.Client) (*helix.ResponseCommon, error) {
		resp, err := api.SendChatMessage(&helix.SendChatMessageParams{
			BroadcasterID: broadcasterID,
			SenderID:      senderID,
			Message:       msg,
		})
		if err != nil {
			return nil, err
		}
		sent = resp.Data.Messages
		return &resp.ResponseCommon, nil
	})
	if err != nil {
		return err
	}
	if len(sent) > 0 && !sent[0].IsSent {
		reason := sent[0].DropReasons.Data.Message
		if reason == "" {
			reason = "unknown"
		}
		return fmt.Errorf("twitch: chat message dropped: %s", reason)
	}
	return nil
}

// UserID resolves a login name to a user id.
func (c *Client) UserID(ctx context.Context, login string) (string, error) {
	var users []helix.User
	err := c.call(ctx, "lookup "+login, func(api *helix.Client) (*helix.ResponseCommon, error) {
		resp, err := api.GetUsers(&helix.UsersParams{Logins: []string{login}})
		if err != nil {
			return nil, err
		}
		users = resp.Data.Users
		return &resp.ResponseCommon, nil
	})
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", fmt.Errorf("twitch: user %q not found", login)
	}
	return users[0].ID, nil
}
