// Package donation receives donation webhooks relayed by a tunnel service and
// hands them to the overlay.
package donation

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/milk9111/overlay/relay"
)

var (
	ErrBadToken   = errors.New("donation: verification token mismatch")
	ErrBadPayload = errors.New("donation: malformed payload")
)

// Donation is one payment notification.
type Donation struct {
	ID       string  `json:"id"`
	From     string  `json:"from"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Message  string  `json:"message"`
	Kind     string  `json:"kind"`
	Public   bool    `json:"public"`
}

func (Donation) EventType() string { return "donation" }

// payload is the Ko-fi webhook body.
type payload struct {
	VerificationToken string `json:"verification_token"`
	MessageID         string `json:"message_id"`
	Timestamp         string `json:"timestamp"`
	Type              string `json:"type"`
	IsPublic          bool   `json:"is_public"`
	FromName          string `json:"from_name"`
	Message           string `json:"message"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	TransactionID     string `json:"kofi_transaction_id"`
}

// Decode parses a webhook body.
func Decode(raw []byte) (payload, error) {
	var p payload
	if len(raw) == 0 {
		return p, ErrBadPayload
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return p, nil
}

func (p payload) donation() (Donation, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(p.Amount), 64)
	if err != nil || amount < 0 {
		return Donation{}, fmt.Errorf("%w: amount %q", ErrBadPayload, p.Amount)
	}
	id := p.MessageID
	if id == "" {
		id = p.TransactionID
	}
	from := p.FromName
	if from == "" || !p.IsPublic {
		from = "Anonymous"
	}
	kind := p.Type
	if kind == "" {
		kind = "Donation"
	}
	return Donation{
		ID:       id,
		From:     from,
		Amount:   amount,
		Currency: strings.ToUpper(p.Currency),
		Message:  p.Message,
		Kind:     kind,
		Public:   p.IsPublic,
	}, nil
}

// Server is the webhook endpoint.
type Server struct {
	token  string
	out    *relay.Relay[Donation]
	engine *gin.Engine
}

func NewServer(token string, out *relay.Relay[Donation]) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		token:  token,
		out:    out,
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery())
	s.engine.GET("/healthz", s.health)
	s.engine.POST("/webhook", s.webhook)
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "queued": s.out.Len()})
}

func (s *Server) webhook(ctx *gin.Context) {
	var raw []byte
	if ctx.ContentType() == gin.MIMEJSON {
		data, err := ctx.GetRawData()
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		raw = data
	} else {
		// Form posts carry the JSON document in a "data" field.
		raw = []byte(ctx.PostForm("data"))
	}

	// The token travels inside the body, so a body that does not decode is
	// unauthenticated and gets 401 rather than 400.
	p, err := Decode(raw)
	if err != nil || !s.verified(p) {
		if err == nil {
			err = ErrBadToken
		}
		log.Printf("donation: rejected webhook from %s: %v", ctx.ClientIP(), err)
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": ErrBadToken.Error()})
		return
	}
	d, err := p.donation()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !s.out.Offer(d) {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "overlay busy"})
		return
	}
	log.Printf("donation: %s %.2f %s from %s", d.Kind, d.Amount, d.Currency, d.From)
	ctx.Status(http.StatusOK)
}

func (s *Server) verified(p payload) bool {
	return s.token != "" && subtle.ConstantTimeCompare([]byte(p.VerificationToken), []byte(s.token)) == 1
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errs := make(chan error, 1)
	go func() { errs <- srv.ListenAndServe() }()

	select {
	case err := <-errs:
		return fmt.Errorf("donation: %w", err)
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			return fmt.Errorf("donation: shutdown: %w", err)
		}
		return nil
	}
}
