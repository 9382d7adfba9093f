// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package relay

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/gomcproxy/gomcproxy/internal/collab"
	"github.com/gomcproxy/gomcproxy/internal/protocol"
)

// resolveName finds a player's uuid via the roster first, falling back to
// the external name->uuid lookup collaborator, which also canonicalizes
// the name's casing (spec §4.8).
func resolveName(ctx context.Context, name string, roster *Roster, lookup *collab.ProfileCache) (canonicalName string, id uuid.UUID, err error) {
	if id, ok := roster.ByName(name); ok {
		if known, ok := roster.Name(id); ok {
			name = known
		}
		return name, id, nil
	}
	return lookup.Lookup(ctx, name)
}

// handleStatsCommand implements "/stats ..." (spec §4.8): resolve each
// named target (or every roster name for "*"), query the stats
// collaborator, and enqueue a summarizing Chat per target. Only the "*"
// form additionally forwards a "/pc <summary>" to the upstream, and only
// for noteworthy targets: FKDR > 2.0, or unresolvable ("nicked") (spec
// §4.8; original_source/src/lib.rs:232-356).
func handleStatsCommand(ctx context.Context, args string, roster *Roster, lookup *collab.ProfileCache, stats collab.StatsProvider, queue *InjectionQueue, forwardPC func(string) error) {
	names := strings.Fields(args)
	broadcast := len(names) == 1 && names[0] == "*"
	if broadcast {
		names = roster.Names()
	}
	for _, name := range names {
		canonical, id, err := resolveName(ctx, name, roster, lookup)
		if err != nil {
			queue.Push(unknownChat(name, "stats"))
			if broadcast {
				forwardNoteworthy(forwardPC, name, "is nicked")
			}
			continue
		}
		if stats == nil {
			queue.Push(unknownChat(canonical, "stats"))
			continue
		}
		summary, err := stats.Stats(ctx, id)
		if err != nil {
			queue.Push(unknownChat(canonical, "stats"))
			continue
		}
		queue.Push(statsChat(canonical, summary))
		if broadcast {
			if fkdr := summary.FinalKD(); fkdr > 2.0 {
				forwardNoteworthy(forwardPC, canonical, fmt.Sprintf("has %.2f FKDR", fkdr))
			}
		}
	}
}

// forwardNoteworthy sends "/pc <name> <note>" upstream, the "*" form's
// summary broadcast (spec §4.8).
func forwardNoteworthy(forwardPC func(string) error, name, note string) {
	if forwardPC == nil {
		return
	}
	_ = forwardPC("/pc " + name + " " + note)
}

// handlePingCommand implements "/ping ..." (spec §4.8): resolve the
// target, read the shared latency map, and enqueue a Chat colored by the
// latency band (<50 dark green, <100 green, <200 yellow, else red).
func handlePingCommand(ctx context.Context, args string, roster *Roster, lookup *collab.ProfileCache, queue *InjectionQueue) {
	name := strings.TrimSpace(args)
	if name == "" {
		queue.Push(unknownChat("", "ping"))
		return
	}
	canonical, id, err := resolveName(ctx, name, roster, lookup)
	if err != nil {
		queue.Push(unknownChat(name, "ping"))
		return
	}
	ms, ok := roster.Latency(id)
	if !ok {
		queue.Push(unknownChat(canonical, "ping"))
		return
	}
	queue.Push(pingChat(canonical, ms))
}

func pingBand(ms int32) string {
	switch {
	case ms < 50:
		return "dark_green"
	case ms < 100:
		return "green"
	case ms < 200:
		return "yellow"
	default:
		return "red"
	}
}

func pingChat(name string, ms int32) protocol.Chat {
	c := protocol.Literal(name + ": " + strconv.Itoa(int(ms)) + "ms")
	c.Color = pingBand(ms)
	return c
}

func statsChat(name string, s collab.BedwarsSummary) protocol.Chat {
	return protocol.Literal(name + " - " + s.String())
}

func unknownChat(name, kind string) protocol.Chat {
	label := name
	if label == "" {
		label = "that player"
	}
	c := protocol.Literal("Unknown " + kind + " for " + label)
	c.Color = "gray"
	return c
}
