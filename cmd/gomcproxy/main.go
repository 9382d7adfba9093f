// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"flag"
	"io"
	"net"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gomcproxy/gomcproxy/internal/collab"
	"github.com/gomcproxy/gomcproxy/internal/framer"
	"github.com/gomcproxy/gomcproxy/internal/handshake"
	"github.com/gomcproxy/gomcproxy/internal/relay"
	"github.com/gomcproxy/gomcproxy/internal/state"
)

func main() {
	listenHost := flag.String("listenhost", "127.0.0.1", "The host to listen on")
	listenPort := flag.String("listenport", "25565", "The port to listen on")

	forwardHost := flag.String("forwardhost", "mc.hypixel.net", "The host to forward to")
	forwardPort := flag.String("forwardport", "25565", "The port to forward to")

	accessToken := flag.String("accesstoken", "", "Mojang access token. See https://kqzz.github.io/mc-bearer-token/")
	accountUUID := flag.String("uuid", "", "Your Minecraft account's UUID")
	username := flag.String("username", "", "Your Minecraft account's username")

	hypixelKey := flag.String("hypixel-api-key", "", "Hypixel API key, enables /stats")

	flag.Parse()

	listenAddr := net.JoinHostPort(*listenHost, *listenPort)
	forwardAddr := net.JoinHostPort(*forwardHost, *forwardPort)

	if *accessToken == "" {
		color.Red("No Mojang access token has been provided")
		os.Exit(1)
	}
	accountID, err := uuid.Parse(*accountUUID)
	if err != nil {
		color.Red("An invalid UUID has been provided: %v", err)
		os.Exit(1)
	}
	if *username == "" {
		color.Red("No username has been provided")
		os.Exit(1)
	}

	var stats collab.StatsProvider
	if *hypixelKey == "" {
		color.Yellow("No Hypixel API Key has been provided, /stats will report unknown")
	} else {
		stats = collab.NewHypixelStats(*hypixelKey, nil)
	}

	log, err := zap.NewProduction()
	if err != nil {
		color.Red("Failed to initialize logger: %v", err)
		os.Exit(1)
	}
	defer log.Sync()

	auth := collab.StaticAuthenticator{Name: *username, AccountUUID: accountID, AccessToken: *accessToken}
	lookup := collab.NewProfileCache(nil)

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		log.Fatal("failed to listen", zap.String("addr", listenAddr), zap.Error(err))
	}
	defer ln.Close()
	color.Green("Proxy listening on %s, forwarding to %s", listenAddr, forwardAddr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Error("accept failed", zap.Error(err))
			continue
		}
		go handleConn(conn, forwardAddr, auth, lookup, stats, log)
	}
}

// handleConn drives one player's session end to end: the handshake, the
// Status passthrough or the dual Login exchange, and then the Play relay
// (spec §4.6 "Server connection").
func handleConn(conn net.Conn, forwardAddr string, auth collab.Authenticator, lookup *collab.ProfileCache, stats collab.StatsProvider, baseLog *zap.Logger) {
	client := state.Accept(conn, baseLog)
	defer client.Close()

	hs, err := handshake.AcceptHandshake(client)
	if err != nil {
		client.Logger().Warn("handshake failed", zap.Error(err))
		return
	}

	server, err := state.Dial(forwardAddr, client.Version(), baseLog)
	if err != nil {
		client.Logger().Error("failed to dial upstream", zap.Error(err))
		return
	}
	defer server.Close()

	if hs.NextState == handshake.NextStateStatus {
		if err := relayStatus(client, server, hs); err != nil {
			client.Logger().Debug("status exchange ended", zap.Error(err))
		}
		return
	}

	if err := runLogin(client, server, hs, auth); err != nil {
		client.Logger().Warn("login failed", zap.Error(err))
		return
	}

	client.Logger().Info("player entered play", zap.String("username", auth.Username()))
	err = relay.New(client, server, lookup, stats, client.Logger()).Run(context.Background())
	if err != nil {
		client.Logger().Info("session ended", zap.Error(err))
	}
}

// runLogin performs the upstream session-join first (spec §4.7 "Login
// (Client)"), then answers the player's own Login Start with the identity
// the upstream session just authenticated as, so both sides of the relay
// agree on protocol version and player identity (spec §4.8 precondition).
func runLogin(client, server *state.Connection, hs handshake.Handshake, auth collab.Authenticator) error {
	if err := handshake.SendHandshake(server, handshake.Handshake{
		ProtocolVersion: hs.ProtocolVersion,
		ServerHost:      hs.ServerHost,
		ServerPort:      hs.ServerPort,
		NextState:       handshake.NextStateLogin,
	}); err != nil {
		return err
	}
	result, err := handshake.Login(context.Background(), server, auth.Username(), auth, handshake.NoPluginMessages{}, nil)
	if err != nil {
		return err
	}
	_, err = handshake.AcceptLogin(client, func(string) (handshake.LoginDecision, error) {
		return handshake.LoginDecision{UUID: result.UUID, Username: result.Username}, nil
	})
	return err
}

// relayStatus forwards the Status phase untouched in both directions
// (spec §4.7 Status is specified client-side only; a MITM proxy's job
// here is pure passthrough so the real server's MOTD and player count
// reach the connecting client unchanged).
func relayStatus(client, server *state.Connection, hs handshake.Handshake) error {
	if err := handshake.SendHandshake(server, handshake.Handshake{
		ProtocolVersion: hs.ProtocolVersion,
		ServerHost:      hs.ServerHost,
		ServerPort:      hs.ServerPort,
		NextState:       handshake.NextStateStatus,
	}); err != nil {
		return err
	}
	for {
		request, err := client.Inbound.NextPacket()
		if err != nil {
			return err
		}
		if err := forwardPacket(request, server.Outbound); err != nil {
			return err
		}
		response, err := server.Inbound.NextPacket()
		if err != nil {
			return err
		}
		if err := forwardPacket(response, client.Outbound); err != nil {
			return err
		}
	}
}

func forwardPacket(pkt *framer.Packet, out *framer.Outbound) error {
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
