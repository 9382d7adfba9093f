// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package state

import (
	"net"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/gomcproxy/gomcproxy/internal/framer"
	"github.com/gomcproxy/gomcproxy/internal/netio"
	"github.com/gomcproxy/gomcproxy/internal/protocol"
)

// Connection is the per-endpoint data model (spec §3 "Connection state").
// A client-facing Connection owns the TCP socket accepted from the player;
// a server-facing Connection owns the socket dialed to the upstream server.
// Both converge on the same Version and Phase once the handshake completes.
type Connection struct {
	Role Role
	conn net.Conn
	log  *zap.Logger

	mu      sync.RWMutex
	phase   Phase
	version protocol.Version

	cipherR *netio.CipherReader
	cipherW *netio.CipherWriter
	Inbound *framer.Inbound
	Outbound *framer.Outbound

	closed atomic.Bool
	closeOnce sync.Once
}

// Version reports the connection's current protocol version.
func (c *Connection) Version() protocol.Version {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// SetVersion is called once the handshake's version field is decoded
// (spec §4.7: the accepted, client-facing side starts tentative at 1.16
// until read).
func (c *Connection) SetVersion(v protocol.Version) {
	c.mu.Lock()
	c.version = v
	c.mu.Unlock()
}

// Phase reports the connection's current phase.
func (c *Connection) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// Advance transitions the connection to next (spec §3: phase is strictly
// monotonic).
func (c *Connection) Advance(next Phase) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase.Advance(next)
}

// SetCompression enables compression at threshold on both framers (spec
// §4.7 id 3 Set Compression).
func (c *Connection) SetCompression(threshold int) {
	c.Inbound.SetCompression(threshold)
	c.Outbound.SetCompression(threshold)
}

// SetKey installs the AES-128-CFB8 key on both cipher halves (spec §4.7:
// both directions keyed with the same shared secret, used as key and IV).
// Returns false if either direction was already keyed.
func (c *Connection) SetKey(sharedSecret [16]byte) bool {
	okR := c.cipherR.SetKey(sharedSecret)
	okW := c.cipherW.SetKey(sharedSecret)
	return okR && okW
}

// Close tears down the underlying TCP connection exactly once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.conn.Close()
	})
	return err
}

// Closed reports whether Close has run.
func (c *Connection) Closed() bool { return c.closed.Load() }

// Logger returns the per-connection structured logger (spec ambient stack:
// every connection's lifecycle is logged with its remote address and role).
func (c *Connection) Logger() *zap.Logger { return c.log }

func newConnection(conn net.Conn, role Role, version protocol.Version, log *zap.Logger) *Connection {
	cr := netio.NewCipherReader(conn)
	cw := netio.NewCipherWriter(conn)
	c := &Connection{
		Role:     role,
		conn:     conn,
		log:      log,
		version:  version,
		cipherR:  cr,
		cipherW:  cw,
		Inbound:  framer.NewInbound(cr),
		Outbound: framer.NewOutbound(cw),
	}
	return c
}

// Dial opens the client-role half of a proxied session: resolves addr per
// spec §6 (SRV lookup, then default port 25565), dials TCP, and returns a
// Connection at Handshaking with the given initial version (the version
// the player's own handshake declared, copied through to the upstream
// side per spec §4.8's precondition).
func Dial(addr string, initialVersion protocol.Version, log *zap.Logger) (*Connection, error) {
	resolved, err := resolveUpstream(addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.Dial("tcp", resolved)
	if err != nil {
		return nil, err
	}
	return newConnection(conn, RoleServerFacing, initialVersion, log.With(zap.String("role", "server-facing"), zap.String("upstream", resolved))), nil
}

// Accept wraps an already-accepted TCP stream as the server-facing-to-us,
// client-facing-to-them Connection (spec §4.6: "Server connection"), at
// Handshaking with a tentative version of 1.16 until the Handshake packet
// is read and SetVersion is called.
func Accept(conn net.Conn, log *zap.Logger) *Connection {
	return newConnection(conn, RoleClientFacing, protocol.V1_16, log.With(zap.String("role", "client-facing"), zap.String("remote", conn.RemoteAddr().String())))
}

// resolveUpstream implements spec §6's upstream resolution: query
// `_minecraft._tcp.<host>` and, if a record exists, use the first record's
// target, with its port unless addr carries an explicit one; otherwise
// use the host itself, with port 25565 unless addr carries one.
func resolveUpstream(addr string) (string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
		port = ""
	}
	_, srvs, err := net.LookupSRV("minecraft", "tcp", host)
	if err == nil && len(srvs) > 0 {
		target := strings.TrimSuffix(srvs[0].Target, ".")
		if port == "" {
			port = strconv.Itoa(int(srvs[0].Port))
		}
		return net.JoinHostPort(target, port), nil
	}
	if port == "" {
		port = "25565"
	}
	return net.JoinHostPort(host, port), nil
}
