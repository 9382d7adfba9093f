// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package collab_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomcproxy/gomcproxy/internal/collab"
)

// redirectingTransport sends every request to a fixed test server regardless
// of the scheme/host the caller dialed, so ProfileCache's hardcoded Mojang
// URL can be exercised against an httptest.Server.
type redirectingTransport struct {
	target string
}

func (rt redirectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.URL.Scheme = "http"
	clone.URL.Host = rt.target
	clone.Host = rt.target
	return http.DefaultTransport.RoundTrip(clone)
}

func TestProfileCacheLookupHit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"069a79f444e94726a5befca90e38aaf5","name":"Notch"}`))
	}))
	defer srv.Close()

	client := &http.Client{Transport: redirectingTransport{target: srv.Listener.Addr().String()}}
	cache := collab.NewProfileCache(client)

	name, id, err := cache.Lookup(context.Background(), "notch")
	require.NoError(t, err)
	require.Equal(t, "Notch", name)
	require.Equal(t, "069a79f4-44e9-4726-a5be-fca90e38aaf5", id.String())
}

func TestProfileCacheLookupMissIsCachedAndNotRefetched(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := &http.Client{Transport: redirectingTransport{target: srv.Listener.Addr().String()}}
	cache := collab.NewProfileCache(client)

	_, _, err := cache.Lookup(context.Background(), "ghost")
	require.ErrorIs(t, err, collab.ErrProfileNotFound)

	_, _, err = cache.Lookup(context.Background(), "ghost")
	require.ErrorIs(t, err, collab.ErrProfileNotFound)
	require.Equal(t, int32(1), calls.Load(), "a cached miss must not re-fetch")
}
