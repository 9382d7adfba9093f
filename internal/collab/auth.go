// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package collab implements the external-collaborator interfaces (spec
// component H): the Authenticator a caller supplies, the Mojang
// session-join and name-lookup HTTP helpers, and a pluggable stats
// provider consumed by the Play relay's chat commands. None of this is
// core protocol logic — it exists only at the edges the core calls out to.
package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/gomcproxy/gomcproxy/internal/protocol"
)

// Authenticator is the pluggable identity collaborator (spec §4.9): it
// names the player presented to the upstream server and supplies the
// Yggdrasil credentials used during the Encryption Response.
type Authenticator interface {
	// Username is the name sent in the client's Login Start packet.
	Username() string
	// Credentials resolves the Mojang access token and account UUID used
	// for the upstream session-join. Called once per Login.
	Credentials(ctx context.Context) (accountUUID uuid.UUID, accessToken string, err error)
}

// StaticAuthenticator is the simplest Authenticator: a fixed name, UUID
// and token supplied up front (the surrounding program is responsible for
// obtaining them; out of scope here per spec §1).
type StaticAuthenticator struct {
	Name        string
	AccountUUID uuid.UUID
	AccessToken string
}

func (s StaticAuthenticator) Username() string { return s.Name }

func (s StaticAuthenticator) Credentials(context.Context) (uuid.UUID, string, error) {
	return s.AccountUUID, s.AccessToken, nil
}

// ErrSessionJoinRejected means the Yggdrasil session server returned a
// non-2xx status for the join request (spec §6).
var ErrSessionJoinRejected = errors.New("collab: session-join rejected by sessionserver.mojang.com")

type joinRequest struct {
	AccessToken     string `json:"accessToken"`
	SelectedProfile string `json:"selectedProfile"`
	ServerID        string `json:"serverId"`
}

// SessionJoin performs the Yggdrasil session-join POST (spec §6, §4.7 id
// 1 Encryption Request): any 2xx response is success.
func SessionJoin(ctx context.Context, httpClient *http.Client, accessToken string, profile uuid.UUID, serverID string) error {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	body, err := json.Marshal(joinRequest{
		AccessToken:     accessToken,
		SelectedProfile: protocol.HexNoHyphens(profile),
		ServerID:        serverID,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://sessionserver.mojang.com/session/minecraft/join", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ErrSessionJoinRejected
	}
	return nil
}
