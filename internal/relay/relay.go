// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package relay

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gomcproxy/gomcproxy/internal/collab"
	"github.com/gomcproxy/gomcproxy/internal/framer"
	"github.com/gomcproxy/gomcproxy/internal/protocol"
	"github.com/gomcproxy/gomcproxy/internal/state"
)

const (
	idChatServerbound = 0x01
	idChatClientbound = 0x02
	idPlayerInfo      = 0x38
)

// chatPosition 1 is the system/HUD slot used for injected messages, kept
// out of the chat history the client would otherwise re-render on resize
// (spec §4.8).
const chatPosition = 1

// ErrVersionMismatch is returned by Run when the two endpoints disagree on
// protocol version, violating the relay's precondition (spec §4.8).
var ErrVersionMismatch = errors.New("relay: client and server protocol versions differ")

// Relay is the Play-phase pipe between one client-facing and one
// server-facing Connection (spec §4.8, component G). Both endpoints must
// already be in state.Play and agree on protocol version before Run is
// called.
type Relay struct {
	client *state.Connection
	server *state.Connection

	roster *Roster
	queue  *InjectionQueue
	lookup *collab.ProfileCache
	stats  collab.StatsProvider

	log *zap.Logger
}

// New builds a Relay over an already-established client/server pair.
// lookup and stats back the "/stats" and "/ping" chat commands; stats may
// be nil, in which case "/stats" always reports unknown.
func New(client, server *state.Connection, lookup *collab.ProfileCache, stats collab.StatsProvider, log *zap.Logger) *Relay {
	return &Relay{
		client: client,
		server: server,
		roster: NewRoster(),
		queue:  NewInjectionQueue(),
		lookup: lookup,
		stats:  stats,
		log:    log,
	}
}

// Run relays packets in both directions until either side disconnects or
// a protocol violation occurs, then returns the first such error (spec
// §4.8: "If either pump's read end reaches EOF or either's write end
// errors, both pumps must stop").
func (rl *Relay) Run(ctx context.Context) error {
	if rl.client.Phase() != state.Play || rl.server.Phase() != state.Play {
		return errors.New("relay: both endpoints must be in Play")
	}
	if rl.client.Version() != rl.server.Version() {
		return ErrVersionMismatch
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rl.pumpClientToServer(gctx) })
	g.Go(func() error { return rl.pumpServerToClient() })
	g.Go(func() error {
		<-gctx.Done()
		rl.client.Close()
		rl.server.Close()
		return nil
	})
	err := g.Wait()
	rl.client.Close()
	rl.server.Close()
	return err
}

// pumpClientToServer is Pump A (spec §4.8): decodes Chat Message Serverbound
// to dispatch chat commands, forwards everything else verbatim. ctx is the
// relay's cancellation signal, threaded into the commands' external HTTP
// lookups (spec §5: "External HTTP calls should inherit the connection's
// cancellation signal").
func (rl *Relay) pumpClientToServer(ctx context.Context) error {
	for {
		pkt, err := rl.client.Inbound.NextPacket()
		if err != nil {
			return err
		}
		if pkt.ID != idChatServerbound {
			if err := forwardVerbatim(pkt, rl.server.Outbound); err != nil {
				return err
			}
			continue
		}

		text, err := protocol.ReadString(pkt.Content, protocol.CapChatMessage)
		if err != nil {
			pkt.Close()
			return err
		}
		if err := pkt.Finished(); err != nil {
			return err
		}

		switch {
		case strings.HasPrefix(text, "/stats "):
			args := strings.TrimSpace(strings.TrimPrefix(text, "/stats "))
			handleStatsCommand(ctx, args, rl.roster, rl.lookup, rl.stats, rl.queue, rl.sendChatToServer)
		case text == "/ping" || strings.HasPrefix(text, "/ping "):
			args := strings.TrimSpace(strings.TrimPrefix(text, "/ping"))
			handlePingCommand(ctx, args, rl.roster, rl.lookup, rl.queue)
		default:
			if err := rl.sendChatToServer(text); err != nil {
				return err
			}
		}
	}
}

// pumpServerToClient is Pump B (spec §4.8): drains the injection queue
// ahead of every blocking read, applies Player Info to the roster, and
// forwards everything (including Player Info itself) verbatim.
func (rl *Relay) pumpServerToClient() error {
	for {
		for _, c := range rl.queue.Drain() {
			if err := rl.sendChatToClient(c); err != nil {
				return err
			}
		}

		pkt, err := rl.server.Inbound.NextPacket()
		if err != nil {
			return err
		}

		if pkt.ID != idPlayerInfo {
			if err := forwardVerbatim(pkt, rl.client.Outbound); err != nil {
				return err
			}
			continue
		}

		body, err := io.ReadAll(pkt.Content)
		if err != nil {
			pkt.Close()
			return err
		}
		if err := pkt.Finished(); err != nil {
			return err
		}
		if err := applyPlayerInfo(body, rl.server.Version(), rl.roster); err != nil {
			rl.log.Warn("player info parse failed, forwarding unparsed", zap.Error(err))
		}

		length := len(body)
		w, err := rl.client.Outbound.CreatePacket(pkt.ID, &length)
		if err != nil {
			return err
		}
		if _, err := w.Write(body); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
	}
}

// forwardVerbatim copies a packet's body through unexamined, preserving
// the known length so the writer can pick the zero-copy bounded path
// (spec §4.8: "any other packet id is forwarded unchanged").
func forwardVerbatim(pkt *framer.Packet, out *framer.Outbound) error {
	length := pkt.Len
	w, err := out.CreatePacket(pkt.ID, &length)
	if err != nil {
		pkt.Close()
		return err
	}
	if _, err := io.Copy(w, pkt.Content); err != nil {
		pkt.Close()
		return err
	}
	if err := pkt.Finished(); err != nil {
		return err
	}
	return w.Close()
}

// sendChatToServer re-encodes text as a Chat Message Serverbound packet
// bound for the upstream server, used both for ordinary chat that didn't
// match a command and for the "/pc <summary>" forwards "/stats *" issues.
func (rl *Relay) sendChatToServer(text string) error {
	length := protocol.StringEncodedLen(text)
	w, err := rl.server.Outbound.CreatePacket(idChatServerbound, &length)
	if err != nil {
		return err
	}
	if err := protocol.WriteString(w, text, protocol.CapChatMessage); err != nil {
		return err
	}
	return w.Close()
}

// sendChatToClient writes an injected Chat as a Chat Message Clientbound
// packet at chatPosition (spec §4.8). The encoded length depends on the
// client's version-specific Chat fixups, so this uses the unknown-length
// streaming writer rather than pre-computing a length hint.
func (rl *Relay) sendChatToClient(c protocol.Chat) error {
	w, err := rl.client.Outbound.CreatePacket(idChatClientbound, nil)
	if err != nil {
		return err
	}
	if err := protocol.EncodeChat(w, c, rl.client.Version()); err != nil {
		return err
	}
	if err := protocol.WriteUint8(w, chatPosition); err != nil {
		return err
	}
	return w.Close()
}
