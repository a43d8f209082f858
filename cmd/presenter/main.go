// Command presenter is a headless presenter: it joins a session, announces a
// screen share and streams a VP8 video file to the session's viewer in place
// of a captured screen. Useful for soak-testing the signaling path without a
// browser.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/ivfreader"
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
	sessionID := flag.String("session", "", "session id to join (required)")
	name := flag.String("name", "headless-presenter", "display name")
	video := flag.String("video", "screen.ivf", "VP8 IVF file streamed as the shared screen")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if *sessionID == "" {
		log.Fatal().Msg("-session is required for presenters")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8},
		"video", "screen",
	)
	if err != nil {
		log.Fatal().Err(err).Msg("create track")
	}
	go feedVideo(ctx, track, *video)

	a := &app{}
	cl, err := client.Dial(ctx, *serverURL, client.Handlers{
		OnJoined: func(sid domain.SessionID, role domain.Role) {
			log.Info().Str("session", string(sid)).Msg("joined")
			if err := a.cl.StartShare(); err != nil {
				log.Error().Err(err).Msg("start share")
			}
			if err := a.coord.StartLink(core.ViewerSentinel); err != nil {
				log.Error().Err(err).Msg("start link")
			}
		},
		OnError: func(msg string) {
			log.Fatal().Str("error", msg).Msg("admission rejected")
		},
		OnViewerJoined: func() {
			// A fresh viewer means a fresh negotiation.
			log.Info().Msg("viewer joined, negotiating")
			if err := a.coord.StartLink(core.ViewerSentinel); err != nil {
				log.Error().Err(err).Msg("start link")
			}
		},
		OnViewerLeft: func() {
			log.Info().Msg("viewer left")
			a.coord.CloseLink(core.ViewerSentinel)
		},
		OnAnswer: func(sender domain.ConnID, sdp string) {
			a.coord.HandleAnswer(core.ViewerSentinel, sdp)
		},
		OnCandidate: func(sender domain.ConnID, cand core.Candidate) {
			a.coord.HandleCandidate(core.ViewerSentinel, cand)
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("dial")
	}
	a.cl = cl
	defer cl.Close()

	factory := func() (peer.Transport, error) {
		return rtc.New(rtc.Config(cfg.ICEServers), core.ViewerSentinel, track)
	}
	a.coord = peer.NewCoordinator(factory, cl, peer.Config{
		RestartBackoff: cfg.RestartBackoff,
		MaxRestarts:    cfg.MaxRestarts,
	}, false)
	defer a.coord.Close()

	if err := cl.Join(*sessionID, domain.RolePresenter, *name); err != nil {
		log.Fatal().Err(err).Msg("join")
	}

	select {
	case <-ctx.Done():
	case <-cl.Done():
		log.Warn().Msg("signaling channel closed")
	}
}

// feedVideo loops the IVF file into the track at its native frame rate.
func feedVideo(ctx context.Context, track *webrtc.TrackLocalStaticSample, path string) {
	for ctx.Err() == nil {
		if err := playFile(ctx, track, path); err != nil {
			log.Error().Err(err).Str("file", path).Msg("video feed stopped")
			return
		}
	}
}

func playFile(ctx context.Context, track *webrtc.TrackLocalStaticSample, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ivf, header, err := ivfreader.NewWith(f)
	if err != nil {
		return err
	}

	frameDur := time.Millisecond * time.Duration(
		float32(header.TimebaseNumerator)/float32(header.TimebaseDenominator)*1000)
	if frameDur <= 0 {
		frameDur = 33 * time.Millisecond
	}

	ticker := time.NewTicker(frameDur)
	defer ticker.Stop()

	for {
		frame, _, err := ivf.ParseNextFrame()
		if errors.Is(err, io.EOF) {
			return nil // loop the file
		}
		if err != nil {
			return err
		}
		if err := track.WriteSample(media.Sample{Data: frame, Duration: frameDur}); err != nil {
			log.Error().Err(err).Msg("write sample")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
