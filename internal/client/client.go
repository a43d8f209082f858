// Package client is the participant side of the signaling channel: it dials
// the server, keeps the read loop running and exposes typed send helpers.
// It implements peer.Sender, so a negotiation coordinator can talk to remote
// peers through it.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Ameen-Abccoders/screen-sharing-app/internal/core"
	"github.com/Ameen-Abccoders/screen-sharing-app/internal/domain"
)

const writeTimeout = 5 * time.Second

// Handlers receive server events. Nil entries are skipped.
type Handlers struct {
	OnJoined          func(sessionID domain.SessionID, role domain.Role)
	OnError           func(msg string)
	OnViewerJoined    func()
	OnViewerLeft      func()
	OnPresenterJoined func(id domain.ConnID, name string)
	OnPresenterLeft   func(id domain.ConnID, name string)
	OnShareStarted    func(id domain.ConnID, name string)
	OnShareStopped    func(id domain.ConnID, name string)
	OnOffer           func(sender domain.ConnID, sdp string)
	OnAnswer          func(sender domain.ConnID, sdp string)
	OnCandidate       func(sender domain.ConnID, cand core.Candidate)
}

type Client struct {
	conn     *websocket.Conn
	handlers Handlers

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the signaling endpoint and starts the read loop.
func Dial(ctx context.Context, url string, h Handlers) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("signaling dial: %w", err)
	}
	c := &Client{
		conn:     conn,
		handlers: h,
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Done closes when the channel is gone, for whatever reason.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
	})
}

// Join requests admission. The outcome arrives as OnJoined or OnError.
func (c *Client) Join(sessionID string, role domain.Role, name string) error {
	return c.send(core.JoinPayload{Type: core.EventJoin, SessionID: sessionID, Role: role, Name: name})
}

func (c *Client) StartShare() error {
	return c.send(core.Envelope{Type: core.EventStartShare})
}

func (c *Client) StopShare() error {
	return c.send(core.Envelope{Type: core.EventStopShare})
}

func (c *Client) SendOffer(target, sdp string) error {
	return c.send(core.SignalPayload{Type: core.EventOffer, Target: target, SDP: sdp})
}

func (c *Client) SendAnswer(target, sdp string) error {
	return c.send(core.SignalPayload{Type: core.EventAnswer, Target: target, SDP: sdp})
}

func (c *Client) SendCandidate(target string, cand core.Candidate) error {
	return c.send(core.SignalPayload{
		Type:          core.EventCandidate,
		Target:        target,
		Candidate:     cand.Candidate,
		SDPMid:        cand.SDPMid,
		SDPMLineIndex: cand.SDPMLineIndex,
	})
}

func (c *Client) send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *Client) readLoop() {
	defer func() {
		close(c.done)
		c.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("module", "client").Msg("read error")
			}
			return
		}
		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	var env core.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "client").Msg("bad json")
		return
	}

	switch env.Type {
	case core.EventJoined:
		var p core.JoinedPayload
		if decode(data, &p) && c.handlers.OnJoined != nil {
			c.handlers.OnJoined(p.SessionID, p.Role)
		}
	case core.EventError:
		var p core.ErrorPayload
		if decode(data, &p) && c.handlers.OnError != nil {
			c.handlers.OnError(p.Error)
		}
	case core.EventViewerJoined:
		if c.handlers.OnViewerJoined != nil {
			c.handlers.OnViewerJoined()
		}
	case core.EventViewerLeft:
		if c.handlers.OnViewerLeft != nil {
			c.handlers.OnViewerLeft()
		}
	case core.EventPresenterJoined:
		c.presence(data, c.handlers.OnPresenterJoined)
	case core.EventPresenterLeft:
		c.presence(data, c.handlers.OnPresenterLeft)
	case core.EventShareStarted:
		c.presence(data, c.handlers.OnShareStarted)
	case core.EventShareStopped:
		c.presence(data, c.handlers.OnShareStopped)
	case core.EventOffer:
		var p core.SignalPayload
		if decode(data, &p) && c.handlers.OnOffer != nil {
			c.handlers.OnOffer(p.SenderID, p.SDP)
		}
	case core.EventAnswer:
		var p core.SignalPayload
		if decode(data, &p) && c.handlers.OnAnswer != nil {
			c.handlers.OnAnswer(p.SenderID, p.SDP)
		}
	case core.EventCandidate:
		var p core.SignalPayload
		if decode(data, &p) && c.handlers.OnCandidate != nil {
			c.handlers.OnCandidate(p.SenderID, core.Candidate{
				Candidate:     p.Candidate,
				SDPMid:        p.SDPMid,
				SDPMLineIndex: p.SDPMLineIndex,
			})
		}
	case core.EventPong:
		// keepalive reply, nothing to do
	default:
		log.Warn().Str("module", "client").Str("type", string(env.Type)).Msg("unknown event")
	}
}

func (c *Client) presence(data []byte, fn func(domain.ConnID, string)) {
	var p core.PresencePayload
	if decode(data, &p) && fn != nil {
		fn(p.PresenterID, p.Name)
	}
}

func decode(data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Error().Err(err).Str("module", "client").Msg("bad payload")
		return false
	}
	return true
}
