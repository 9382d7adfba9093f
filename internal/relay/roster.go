// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package relay implements the Play-phase relay (spec component G): two
// concurrent pump loops, an injection queue, and the roster/latency
// derived state populated from observed server->client packets.
package relay

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Roster is the bijective uuid <-> case-insensitive-name mapping plus the
// latency table, both populated only from Player Info packets observed
// on the server->client pump and read by the client->server pump's chat
// commands (spec §3 "Player roster entry", §4.8 concurrency note).
type Roster struct {
	mu      sync.RWMutex
	byUUID  map[uuid.UUID]string
	byName  map[string]uuid.UUID // keyed by strings.ToLower(name)
	latency map[uuid.UUID]int32
}

func NewRoster() *Roster {
	return &Roster{
		byUUID:  make(map[uuid.UUID]string),
		byName:  make(map[string]uuid.UUID),
		latency: make(map[uuid.UUID]int32),
	}
}

// Add inserts or replaces the uuid<->name pair, evicting any prior entry
// on either side so the mapping stays bijective, and records ping.
func (r *Roster) Add(id uuid.UUID, name string, ping int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if oldName, ok := r.byUUID[id]; ok {
		delete(r.byName, strings.ToLower(oldName))
	}
	if oldID, ok := r.byName[strings.ToLower(name)]; ok {
		delete(r.byUUID, oldID)
	}
	r.byUUID[id] = name
	r.byName[strings.ToLower(name)] = id
	r.latency[id] = ping
}

// UpdateLatency updates the ping for an already-known uuid; a uuid with
// no roster entry is recorded anyway (spec is silent on ordering between
// Add and Update Latency actions within one Player Info packet).
func (r *Roster) UpdateLatency(id uuid.UUID, ping int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latency[id] = ping
}

// Remove deletes uuid from both the roster and the latency map.
func (r *Roster) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name, ok := r.byUUID[id]; ok {
		delete(r.byName, strings.ToLower(name))
		delete(r.byUUID, id)
	}
	delete(r.latency, id)
}

// ByName resolves a case-insensitive name to its uuid via the roster
// alone (no external lookup); ok is false if unknown.
func (r *Roster) ByName(name string) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[strings.ToLower(name)]
	return id, ok
}

// Name returns the known name for a uuid, if any.
func (r *Roster) Name(id uuid.UUID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byUUID[id]
	return name, ok
}

// Latency returns the last-observed ping for a uuid, if any.
func (r *Roster) Latency(id uuid.UUID) (int32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ms, ok := r.latency[id]
	return ms, ok
}

// Names returns a snapshot of every known roster name, for the "/stats *"
// broadcast form.
func (r *Roster) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byUUID))
	for _, name := range r.byUUID {
		names = append(names, name)
	}
	return names
}
