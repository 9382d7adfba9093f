// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package handshake

// PluginMessageHandler answers a Login Plugin Request (spec §4.7 id 4):
// given the channel identifier and the request's residual payload bytes,
// it either produces a response (acknowledged with the response bytes) or
// declines (acknowledged with an empty, unsuccessful reply). Most
// deployments never need to implement this; NoPluginMessages below
// declines everything.
type PluginMessageHandler interface {
	HandlePluginRequest(channel string, data []byte) (response []byte, handled bool)
}

// NoPluginMessages declines every Login Plugin Request, which is correct
// for a proxy that doesn't itself speak any login-time plugin channel.
type NoPluginMessages struct{}

func (NoPluginMessages) HandlePluginRequest(string, []byte) ([]byte, bool) { return nil, false }
