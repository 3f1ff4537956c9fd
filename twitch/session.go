package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/milk9111/overlay/relay"
)

// Command is something the overlay asks the session goroutine to do.
type Command interface {
	command()
}

type Connect struct{}

// Disconnect says goodbye in chat, when Message is set, and closes the
// socket.
type Disconnect struct {
	Message string
}

type SendChat struct {
	Message string
}

func (Connect) command()    {}
func (Disconnect) command() {}
func (SendChat) command()   {}

const (
	welcomeTimeout      = 10 * time.Second
	keepaliveSlack      = 5 * time.Second
	drainTimeout        = 30 * time.Second
	retryDelay          = 2 * time.Second
	maxResumeAttempts   = 3
	terminalSendTimeout = 5 * time.Second
	validateInterval    = time.Hour
	dedupeWindow        = 10 * time.Minute
)

type metadata struct {
	MessageID        string           `json:"message_id"`
	MessageType      string           `json:"message_type"`
	MessageTimestamp time.Time        `json:"message_timestamp"`
	SubscriptionType SubscriptionType `json:"subscription_type"`
}

type sessionInfo struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	KeepaliveTimeout int    `json:"keepalive_timeout_seconds"`
	ReconnectURL     string `json:"reconnect_url"`
}

type subscriptionInfo struct {
	Type   SubscriptionType `json:"type"`
	Status string           `json:"status"`
}

type message struct {
	Metadata metadata `json:"metadata"`
	Payload  struct {
		Session      *sessionInfo     `json:"session"`
		Subscription subscriptionInfo `json:"subscription"`
		Event        json.RawMessage  `json:"event"`
	} `json:"payload"`
}

type frame struct {
	msg message
	err error
}

// socket is one EventSub websocket plus the goroutine reading it.
type socket struct {
	ws        *websocket.Conn
	session   sessionInfo
	frames    chan frame
	closed    chan struct{}
	closeOnce sync.Once
}

func (s *socket) close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = s.ws.Close()
	})
}

func (s *socket) read(slack time.Duration) {
	timeout := time.Duration(s.session.KeepaliveTimeout)*time.Second + slack
	for {
		_ = s.ws.SetReadDeadline(time.Now().Add(timeout))
		var f frame
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			f.err = err
		} else if err := json.Unmarshal(data, &f.msg); err != nil {
			f.err = fmt.Errorf("twitch: bad frame: %w", err)
		}
		select {
		case s.frames <- f:
		case <-s.closed:
			return
		}
		if f.err != nil {
			return
		}
	}
}

// Session owns the EventSub connection. Run it on its own goroutine and talk
// to it through Do; events come back through the relay.
type Session struct {
	client *Client
	out    *relay.Relay[Event]
	cmds   chan Command
	dialer *websocket.Dialer

	WelcomeTimeout time.Duration
	KeepaliveSlack time.Duration
	// DrainTimeout bounds how long the old socket is read after a
	// session_reconnect handover.
	DrainTimeout time.Duration
	// RetryDelay is the first backoff step when a dead socket is replaced.
	RetryDelay time.Duration

	mu            sync.Mutex
	broadcasterID string
	userID        string
	seen          map[string]time.Time
}

func NewSession(client *Client, out *relay.Relay[Event]) *Session {
	return &Session{
		client:         client,
		out:            out,
		cmds:           make(chan Command, 16),
		dialer:         websocket.DefaultDialer,
		WelcomeTimeout: welcomeTimeout,
		KeepaliveSlack: keepaliveSlack,
		DrainTimeout:   drainTimeout,
		RetryDelay:     retryDelay,
		seen:           make(map[string]time.Time),
	}
}

// Do queues cmd without blocking and reports whether it was accepted.
func (s *Session) Do(cmd Command) bool {
	select {
	case s.cmds <- cmd:
		return true
	default:
		log.Printf("twitch: command queue full, dropping %T", cmd)
		return false
	}
}

// Run processes commands until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)
	stop := func() {
		if cancel == nil {
			return
		}
		cancel()
		<-done
		cancel, done = nil, nil
	}
	defer stop()

	for {
		var finished <-chan struct{}
		if done != nil {
			finished = done
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-finished:
			cancel()
			cancel, done = nil, nil
		case cmd := <-s.cmds:
			switch c := cmd.(type) {
			case Connect:
				if cancel != nil {
					log.Printf("twitch: already connected")
					continue
				}
				var connCtx context.Context
				connCtx, cancel = context.WithCancel(ctx)
				done = make(chan struct{})
				go func(done chan struct{}) {
					defer close(done)
					err := s.serve(connCtx)
					if errors.Is(err, context.Canceled) {
						err = nil
					}
					if err != nil {
						log.Printf("twitch: session ended: %v", err)
					}
					s.sendTerminal(Finished{Err: err})
				}(done)
			case Disconnect:
				if cancel == nil {
					continue
				}
				if c.Message != "" {
					s.chat(ctx, c.Message)
				}
				stop()
			case SendChat:
				s.chat(ctx, c.Message)
			}
		}
	}
}

func (s *Session) chat(ctx context.Context, msg string) {
	s.mu.Lock()
	broadcasterID, userID := s.broadcasterID, s.userID
	s.mu.Unlock()
	if broadcasterID == "" {
		log.Printf("twitch: not connected, dropping chat message")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.client.SendChatMessage(ctx, broadcasterID, userID, msg); err != nil {
		log.Printf("twitch: %v", err)
	}
}

func (s *Session) open(ctx context.Context, url string) (*socket, error) {
	ws, _, err := s.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("twitch: dial %s: %w", url, err)
	}
	_ = ws.SetReadDeadline(time.Now().Add(s.WelcomeTimeout))
	var msg message
	if err := ws.ReadJSON(&msg); err != nil {
		ws.Close()
		return nil, fmt.Errorf("twitch: waiting for welcome: %w", err)
	}
	if msg.Metadata.MessageType != "session_welcome" || msg.Payload.Session == nil {
		ws.Close()
		return nil, fmt.Errorf("twitch: expected session_welcome, got %q", msg.Metadata.MessageType)
	}
	sock := &socket{
		ws:      ws,
		session: *msg.Payload.Session,
		frames:  make(chan frame),
		closed:  make(chan struct{}),
	}
	if sock.session.KeepaliveTimeout <= 0 {
		sock.session.KeepaliveTimeout = 10
	}
	go sock.read(s.KeepaliveSlack)
	return sock, nil
}

func (s *Session) serve(ctx context.Context) error {
	v, err := s.client.Authenticate(ctx)
	if err != nil {
		return err
	}
	broadcasterID := v.UserID
	if login := s.client.cfg.BroadcasterLogin; login != "" && login != v.Login {
		if broadcasterID, err = s.client.UserID(ctx, login); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.broadcasterID, s.userID = broadcasterID, v.UserID
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.broadcasterID, s.userID = "", ""
		s.mu.Unlock()
	}()

	sock, err := s.start(ctx, broadcasterID, v)
	if err != nil {
		return err
	}
	defer func() { sock.close() }()

	// draining is the socket being replaced after a session_reconnect. Twitch
	// may still deliver notifications on it until it closes.
	var (
		draining   *socket
		drainTimer *time.Timer
	)
	stopDrain := func() {
		if draining == nil {
			return
		}
		draining.close()
		drainTimer.Stop()
		draining, drainTimer = nil, nil
	}
	defer stopDrain()

	validate := time.NewTicker(validateInterval)
	defer validate.Stop()

	for {
		var (
			drainFrames <-chan frame
			drainDone   <-chan time.Time
		)
		if draining != nil {
			drainFrames, drainDone = draining.frames, drainTimer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-validate.C:
			if _, err := s.client.Authenticate(ctx); err != nil {
				log.Printf("twitch: hourly validation: %v", err)
			}
		case <-drainDone:
			log.Printf("twitch: old session %s still open, closing it", draining.session.ID)
			stopDrain()
		case f := <-drainFrames:
			if f.err != nil {
				stopDrain()
				continue
			}
			if err := s.handle(ctx, f.msg); err != nil {
				return err
			}
		case f := <-sock.frames:
			if f.err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("twitch: session %s lost: %v", sock.session.ID, f.err)
				sock.close()
				next, err := s.resume(ctx, broadcasterID, v)
				if err != nil {
					return err
				}
				sock = next
				continue
			}
			if f.msg.Metadata.MessageType == "session_reconnect" {
				next, err := s.reconnect(ctx, f.msg)
				if err != nil {
					log.Printf("twitch: %v", err)
					continue
				}
				stopDrain()
				draining, sock = sock, next
				drainTimer = time.NewTimer(s.DrainTimeout)
				continue
			}
			if err := s.handle(ctx, f.msg); err != nil {
				return err
			}
		}
	}
}

// start opens a fresh EventSub socket, subscribes it and reports Ready.
func (s *Session) start(ctx context.Context, broadcasterID string, v Validation) (*socket, error) {
	sock, err := s.open(ctx, s.client.cfg.EventSubURL)
	if err != nil {
		return nil, err
	}
	for _, typ := range s.client.cfg.Subscriptions {
		if err := s.client.CreateSubscription(ctx, typ, sock.session.ID, broadcasterID, v.UserID); err != nil {
			sock.close()
			return nil, err
		}
	}
	log.Printf("twitch: session %s ready with %d subscriptions", sock.session.ID, len(s.client.cfg.Subscriptions))
	if err := s.out.Send(ctx, Ready{SessionID: sock.session.ID, Login: v.Login}); err != nil {
		sock.close()
		return nil, err
	}
	return sock, nil
}

// resume replaces a socket that died without a reconnect message, backing
// off between attempts.
func (s *Session) resume(ctx context.Context, broadcasterID string, v Validation) (*socket, error) {
	var err error
	for attempt := 0; attempt < maxResumeAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.RetryDelay << (attempt - 1)):
			}
		}
		var sock *socket
		if sock, err = s.start(ctx, broadcasterID, v); err == nil {
			return sock, nil
		}
		log.Printf("twitch: resume attempt %d: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("twitch: resume: %w", err)
}

// handle processes one frame from a live or draining socket.
func (s *Session) handle(ctx context.Context, msg message) error {
	switch msg.Metadata.MessageType {
	case "session_keepalive":
	case "notification":
		return s.notify(ctx, msg)
	case "revocation":
		sub := msg.Payload.Subscription
		log.Printf("twitch: subscription %s revoked: %s", sub.Type, sub.Status)
		return s.out.Send(ctx, Revoked{Type: sub.Type, Status: sub.Status})
	default:
		log.Printf("twitch: ignoring %q message", msg.Metadata.MessageType)
	}
	return nil
}

// sendTerminal delivers an event that must not be dropped even when the
// session context is already cancelled.
func (s *Session) sendTerminal(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), terminalSendTimeout)
	defer cancel()
	if err := s.out.Send(ctx, ev); err != nil {
		log.Printf("twitch: deliver %s: %v", ev.EventType(), err)
	}
}

func (s *Session) reconnect(ctx context.Context, msg message) (*socket, error) {
	if msg.Payload.Session == nil || msg.Payload.Session.ReconnectURL == "" {
		return nil, errors.New("twitch: reconnect without url")
	}
	log.Printf("twitch: reconnecting to %s", msg.Payload.Session.ReconnectURL)
	return s.open(ctx, msg.Payload.Session.ReconnectURL)
}

func (s *Session) notify(ctx context.Context, msg message) error {
	if s.duplicate(msg.Metadata.MessageID, time.Now()) {
		return nil
	}
	typ := msg.Payload.Subscription.Type
	if typ == "" {
		typ = msg.Metadata.SubscriptionType
	}
	ev, err := DecodeEvent(typ, msg.Payload.Event)
	if err != nil {
		log.Printf("twitch: %v", err)
		return nil
	}
	return s.out.Send(ctx, ev)
}

// duplicate records id and reports whether it was already seen inside the
// dedupe window.
func (s *Session) duplicate(id string, now time.Time) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, t := range s.seen {
		if now.Sub(t) > dedupeWindow {
			delete(s.seen, k)
		}
	}
	if _, ok := s.seen[id]; ok {
		return true
	}
	s.seen[id] = now
	return false
}
