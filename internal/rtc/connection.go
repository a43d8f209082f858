// Package rtc implements peer.Transport on a pion PeerConnection.
package rtc

import (
	"context"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/Ameen-Abccoders/screen-sharing-app/internal/core"
	"github.com/Ameen-Abccoders/screen-sharing-app/internal/peer"
)

type Conn struct {
	pc     *webrtc.PeerConnection
	label  string
	cancel context.CancelFunc

	onCand  func(core.Candidate)
	onState func(peer.TransportState)
	onTrack func(ctx context.Context, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)
}

// Config builds the pion configuration from STUN/TURN urls.
func Config(urls []string) webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: urls},
		},
	}
}

// New creates the underlying PeerConnection and attaches any local tracks.
// The label only tags log lines.
func New(cfg webrtc.Configuration, label string, tracks ...webrtc.TrackLocal) (*Conn, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	for _, track := range tracks {
		if _, err := pc.AddTrack(track); err != nil {
			_ = pc.Close()
			return nil, err
		}
	}
	return &Conn{pc: pc, label: label}, nil
}

func (c *Conn) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil || c.onCand == nil {
			return
		}
		ci := cand.ToJSON()
		c.onCand(core.Candidate{
			Candidate:     ci.Candidate,
			SDPMid:        ci.SDPMid,
			SDPMLineIndex: ci.SDPMLineIndex,
		})
	})

	c.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "rtc").Str("peer", c.label).Str("peer_connection_state", s.String()).Msg("peer state")
		if c.onState == nil {
			return
		}
		switch s {
		case webrtc.PeerConnectionStateConnected:
			c.onState(peer.TransportConnected)
		case webrtc.PeerConnectionStateFailed:
			c.onState(peer.TransportFailed)
		case webrtc.PeerConnectionStateClosed:
			c.onState(peer.TransportClosed)
			cancel()
		}
	})

	c.pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		log.Info().
			Str("module", "rtc").
			Str("peer", c.label).
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Str("stream_id", track.StreamID()).
			Msg("OnTrack received")
		if c.onTrack != nil {
			c.onTrack(ctx, track, receiver)
		}
	})

	return nil
}

func (c *Conn) CreateOffer() (string, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return "", err
	}
	// Trickle ICE: candidates follow through OnICECandidate, no need to
	// wait for gathering.
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return "", err
	}
	return offer.SDP, nil
}

func (c *Conn) CreateAnswer(remoteOffer string) (string, error) {
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: remoteOffer}
	if err := c.pc.SetRemoteDescription(offer); err != nil {
		return "", err
	}
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return "", err
	}
	if err := c.pc.SetLocalDescription(answer); err != nil {
		return "", err
	}
	return answer.SDP, nil
}

func (c *Conn) ApplyAnswer(sdp string) error {
	return c.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  sdp,
	})
}

func (c *Conn) AddRemoteCandidate(cand core.Candidate) error {
	return c.pc.AddICECandidate(webrtc.ICECandidateInit{
		Candidate:     cand.Candidate,
		SDPMid:        cand.SDPMid,
		SDPMLineIndex: cand.SDPMLineIndex,
	})
}

func (c *Conn) OnCandidate(fn func(core.Candidate)) { c.onCand = fn }

func (c *Conn) OnStateChange(fn func(peer.TransportState)) { c.onState = fn }

// OnTrack sets the application-level callback for remote tracks.
func (c *Conn) OnTrack(fn func(ctx context.Context, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)) {
	c.onTrack = fn
}

func (c *Conn) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.pc != nil {
		if err := c.pc.Close(); err != nil {
			log.Error().Err(err).Str("module", "rtc").Str("peer", c.label).Msg("close error")
		} else {
			log.Info().Str("module", "rtc").Str("peer", c.label).Msg("closed")
		}
	}
}
