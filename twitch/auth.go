package twitch

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

var ErrStateMismatch = errors.New("twitch: oauth state mismatch")

// Authorize runs the authorization code flow: it listens on the redirect URL,
// hands the authorize URL to open, waits for Twitch to redirect back, then
// exchanges and saves the tokens.
func (c *Client) Authorize(ctx context.Context, open func(authURL string)) (Tokens, error) {
	redirect, err := url.Parse(c.cfg.RedirectURL)
	if err != nil {
		return Tokens{}, fmt.Errorf("twitch: redirect url: %w", err)
	}
	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return Tokens{}, fmt.Errorf("twitch: listen %s: %w", redirect.Host, err)
	}

	state, err := randomState()
	if err != nil {
		ln.Close()
		return Tokens{}, err
	}

	type result struct {
		tokens Tokens
		err    error
	}
	results := make(chan result, 1)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	path := redirect.Path
	if path == "" {
		path = "/"
	}
	r.GET(path, func(ctx *gin.Context) {
		if ctx.Query("state") != state {
			ctx.String(http.StatusBadRequest, "state mismatch")
			select {
			case results <- result{err: ErrStateMismatch}:
			default:
			}
			return
		}
		if msg := ctx.Query("error"); msg != "" {
			ctx.String(http.StatusBadRequest, "authorization denied: %s", ctx.Query("error_description"))
			select {
			case results <- result{err: fmt.Errorf("twitch: authorization denied: %s", msg)}:
			default:
			}
			return
		}
		tokens, err := c.Exchange(ctx.Request.Context(), ctx.Query("code"))
		if err != nil {
			ctx.String(http.StatusBadGateway, "token exchange failed")
		} else {
			ctx.String(http.StatusOK, "Overlay authorized. You can close this tab.")
		}
		select {
		case results <- result{tokens: tokens, err: err}:
		default:
		}
	})

	srv := &http.Server{Handler: r}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("twitch: auth listener: %v", err)
		}
	}()
	defer srv.Close()

	open(c.AuthorizeURL(state))

	select {
	case <-ctx.Done():
		return Tokens{}, ctx.Err()
	case res := <-results:
		if res.err != nil {
			return Tokens{}, res.err
		}
		if err := c.store.Save(res.tokens); err != nil {
			return Tokens{}, fmt.Errorf("twitch: save tokens: %w", err)
		}
		c.SetTokens(res.tokens)
		return res.tokens, nil
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("twitch: state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
