package agent

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mailpilot/mailpilot/internal/api"
	"github.com/mailpilot/mailpilot/internal/logging"
)

const closeGracePeriod = time.Second

// Channel is a live websocket conversation with the assistant. Incoming
// frames are delivered on Messages; the channel shuts down when the
// dialing context is cancelled, Close is called, or the peer goes away.
type Channel struct {
	conn     *websocket.Conn
	clientID string
	logger   *slog.Logger

	writeMu sync.Mutex
	once    sync.Once

	incoming chan Message
	done     chan struct{}

	errMu sync.Mutex
	err   error
}

// Dial opens the assistant websocket. The client id identifies this
// conversation on the server; an empty id gets a generated one. The
// bearer credential is passed as a query parameter, the only place a
// browser websocket can carry it, so the server contract expects it
// there.
func Dial(ctx context.Context, baseURL, clientID string, creds api.CredentialSource, logger *slog.Logger) (*Channel, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if clientID == "" {
		clientID = uuid.NewString()
	}

	wsURL, err := websocketURL(baseURL, clientID, creds)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, &api.Error{
			Op:      "dialAgent",
			Path:    "/ws/agent",
			Kind:    api.KindTransport,
			Message: "could not reach the assistant",
			Err:     err,
		}
	}

	ch := &Channel{
		conn:     conn,
		clientID: clientID,
		logger:   logging.WithStore(logger, "agent"),
		incoming: make(chan Message, 16),
		done:     make(chan struct{}),
	}

	go ch.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			ch.close(ctx.Err())
		case <-ch.done:
		}
	}()

	ch.logger.Debug("assistant channel open", slog.String("client_id", clientID))
	return ch, nil
}

func websocketURL(baseURL, clientID string, creds api.CredentialSource) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/agent"

	q := u.Query()
	q.Set("client_id", clientID)
	if creds != nil {
		if token := creds.Token(); token != "" {
			q.Set("token", token)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Messages delivers incoming frames. The channel is closed when the
// connection ends; check Err afterwards.
func (ch *Channel) Messages() <-chan Message {
	return ch.incoming
}

// ClientID returns the conversation identifier this channel dialed with.
func (ch *Channel) ClientID() string {
	return ch.clientID
}

// Err reports why the channel stopped. It is nil after a clean Close.
func (ch *Channel) Err() error {
	ch.errMu.Lock()
	defer ch.errMu.Unlock()
	return ch.err
}

// Send writes one frame.
func (ch *Channel) Send(msg Message) error {
	select {
	case <-ch.done:
		return fmt.Errorf("assistant channel is closed")
	default:
	}

	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()
	return ch.conn.WriteJSON(msg)
}

// SendChat sends a user chat message, optionally with the text of the
// email the user is looking at as context.
func (ch *Channel) SendChat(text, emailContext string) error {
	return ch.Send(Message{
		Type:           TypeChat,
		Text:           text,
		EmailContext:   emailContext,
		ConversationID: ch.clientID,
	})
}

// RequestProcessing asks the assistant to run an action on one email.
func (ch *Channel) RequestProcessing(emailID, action string) error {
	return ch.Send(Message{Type: TypeProcessEmail, EmailID: emailID, Action: action})
}

// RequestDraft asks the assistant to generate a reply draft.
func (ch *Channel) RequestDraft(contextEmailID, tone, instructions string) error {
	return ch.Send(Message{
		Type:           TypeGenerateDraft,
		ContextEmailID: contextEmailID,
		Tone:           tone,
		Instructions:   instructions,
	})
}

// Close shuts the channel down, sending a close frame if the peer is
// still there.
func (ch *Channel) Close() error {
	ch.close(nil)
	return nil
}

func (ch *Channel) close(cause error) {
	ch.once.Do(func() {
		if cause != nil && cause != context.Canceled {
			ch.errMu.Lock()
			ch.err = cause
			ch.errMu.Unlock()
		}

		ch.writeMu.Lock()
		deadline := time.Now().Add(closeGracePeriod)
		_ = ch.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		ch.writeMu.Unlock()

		close(ch.done)
		_ = ch.conn.Close()
	})
}

func (ch *Channel) readLoop() {
	defer close(ch.incoming)
	for {
		var msg Message
		if err := ch.conn.ReadJSON(&msg); err != nil {
			select {
			case <-ch.done:
				// Shutdown already in progress.
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					ch.logger.Debug("assistant channel read failed", logging.Err(err))
					ch.close(err)
					return
				}
				ch.close(nil)
			}
			return
		}

		select {
		case ch.incoming <- msg:
		case <-ch.done:
			return
		}
	}
}
