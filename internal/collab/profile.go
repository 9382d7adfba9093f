// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrProfileNotFound means the name lookup collaborator found no account
// with that name (spec §4.9: Name->UUID lookup may return NotFound).
var ErrProfileNotFound = errors.New("collab: no such player name")

type apiProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProfileCache resolves player names to canonical name + UUID via
// Mojang's lookup endpoint (spec §6), caching both hits and misses so a
// chat command storm doesn't hammer the API. Grounded on the teacher's
// getPlayerProfile, generalized into a reusable, concurrency-safe type.
type ProfileCache struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]*apiProfile // lowercased name -> profile; nil entry means NotFound
}

func NewProfileCache(client *http.Client) *ProfileCache {
	if client == nil {
		client = http.DefaultClient
	}
	return &ProfileCache{client: client, cache: make(map[string]*apiProfile)}
}

// Lookup resolves name to its canonical casing and UUID (spec §4.9:
// "Name->UUID lookup: given a name, returns canonical name and UUID, or
// NotFound"). ctx carries the calling connection's cancellation signal
// into the underlying HTTP call (spec §5).
func (p *ProfileCache) Lookup(ctx context.Context, name string) (canonicalName string, id uuid.UUID, err error) {
	key := strings.ToLower(name)
	p.mu.Lock()
	if cached, ok := p.cache[key]; ok {
		p.mu.Unlock()
		if cached == nil {
			return "", uuid.UUID{}, ErrProfileNotFound
		}
		u, parseErr := uuid.Parse(cached.ID)
		return cached.Name, u, parseErr
	}
	p.mu.Unlock()

	profile, err := p.fetch(ctx, name)
	if err == nil || errors.Is(err, ErrProfileNotFound) {
		p.mu.Lock()
		p.cache[key] = profile
		p.mu.Unlock()
	}
	if err != nil {
		return "", uuid.UUID{}, err
	}
	u, parseErr := uuid.Parse(profile.ID)
	if parseErr != nil {
		return "", uuid.UUID{}, parseErr
	}
	return profile.Name, u, nil
}

func (p *ProfileCache) fetch(ctx context.Context, name string) (*apiProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.mojang.com/users/profiles/minecraft/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, ErrProfileNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("collab: profile lookup returned HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var profile apiProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
