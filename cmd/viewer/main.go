// Command viewer is a headless viewer: it admits (or creates) a session,
// answers presenter offers and drains the incoming video tracks, logging
// packet throughput instead of rendering. One relationship per presenter,
// each restartable on its own.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Ameen-Abccoders/screen-sharing-app/internal/client"
	"github.com/Ameen-Abccoders/screen-sharing-app/internal/config"
	"github.com/Ameen-Abccoders/screen-sharing-app/internal/core"
	"github.com/Ameen-Abccoders/screen-sharing-app/internal/domain"
	"github.com/Ameen-Abccoders/screen-sharing-app/internal/peer"
	"github.com/Ameen-Abccoders/screen-sharing-app/internal/rtc"
)

type app struct {
	coord *peer.Coordinator
	cl    *client.Client
}

func main() {
	serverURL := flag.String("server", "ws://localhost:8080/api/ws/signal", "signaling endpoint")
	sessionID := flag.String("session", "", "session id (empty to have one generated)")
	name := flag.String("name", "headless-viewer", "display name")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	a := &app{}
	cl, err := client.Dial(ctx, *serverURL, client.Handlers{
		OnJoined: func(sid domain.SessionID, role domain.Role) {
			log.Info().Str("session", string(sid)).Msg("session ready, waiting for presenters")
		},
		OnError: func(msg string) {
			log.Fatal().Str("error", msg).Msg("admission rejected")
		},
		OnPresenterJoined: func(id domain.ConnID, name string) {
			log.Info().Str("presenter", string(id)).Str("name", name).Msg("presenter joined")
		},
		OnPresenterLeft: func(id domain.ConnID, name string) {
			log.Info().Str("presenter", string(id)).Str("name", name).Msg("presenter left")
			a.coord.CloseLink(string(id))
		},
		OnShareStarted: func(id domain.ConnID, name string) {
			log.Info().Str("presenter", string(id)).Str("name", name).Msg("share started")
		},
		OnShareStopped: func(id domain.ConnID, name string) {
			log.Info().Str("presenter", string(id)).Str("name", name).Msg("share stopped")
			a.coord.CloseLink(string(id))
		},
		OnOffer: func(sender domain.ConnID, sdp string) {
			a.coord.HandleOffer(string(sender), sdp)
		},
		OnCandidate: func(sender domain.ConnID, cand core.Candidate) {
			a.coord.HandleCandidate(string(sender), cand)
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("dial")
	}
	a.cl = cl
	defer cl.Close()

	factory := func() (peer.Transport, error) {
		conn, err := rtc.New(rtc.Config(cfg.ICEServers), "presenter")
		if err != nil {
			return nil, err
		}
		conn.OnTrack(func(trackCtx context.Context, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
			go drainTrack(trackCtx, track)
		})
		return conn, nil
	}
	a.coord = peer.NewCoordinator(factory, cl, peer.Config{
		RestartBackoff: cfg.RestartBackoff,
		MaxRestarts:    cfg.MaxRestarts,
	}, true)
	defer a.coord.Close()

	if err := cl.Join(*sessionID, domain.RoleViewer, *name); err != nil {
		log.Fatal().Err(err).Msg("join")
	}

	select {
	case <-ctx.Done():
	case <-cl.Done():
		log.Warn().Msg("signaling channel closed")
	}
}

// drainTrack consumes RTP until the track ends, logging coarse throughput.
func drainTrack(ctx context.Context, track *webrtc.TrackRemote) {
	packets := 0
	for ctx.Err() == nil {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			log.Info().Str("track_id", track.ID()).Int("packets", packets).Msg("track ended")
			return
		}
		packets++
		if packets%500 == 0 {
			log.Debug().Str("track_id", track.ID()).Int("packets", packets).
				Uint32("rtp_ts", pkt.Timestamp).Msg("receiving")
		}
	}
}
