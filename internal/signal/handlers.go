package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Ameen-Abccoders/screen-sharing-app/internal/core"
	"github.com/Ameen-Abccoders/screen-sharing-app/internal/domain"
)

func (ctl *Controller) handleJoin(id domain.ConnID, c core.SignalConnection, data []byte) {
	var p core.JoinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(c, core.ErrorPayload{Type: core.EventError, Error: "bad_payload"})
		return
	}

	sid, err := ctl.Registry.Admit(id, p.Role, p.Name, domain.SessionID(p.SessionID), c)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("admission rejected")
		ctl.sendJSON(c, core.ErrorPayload{Type: core.EventError, Error: err.Error()})
		return
	}

	ctl.sendJSON(c, core.JoinedPayload{Type: core.EventJoined, SessionID: sid, Role: p.Role})
}

// handleRelay re-encodes the negotiation payload with the sender's identity
// attached and hands addressing to the registry. The sdp/candidate contents
// pass through untouched.
func (ctl *Controller) handleRelay(kind core.EventType, id domain.ConnID, data []byte) {
	var p core.SignalPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("kind", string(kind)).Msg("bad relay payload")
		return
	}

	target := core.ParseTarget(p.Target)
	fwd := p
	fwd.Type = kind
	fwd.Target = ""
	fwd.SenderID = id

	b, err := json.Marshal(fwd)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("relay marshal")
		return
	}
	ctl.Registry.Relay(kind, id, target, b)
}
