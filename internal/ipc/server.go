// Package ipc implements the local Unix-domain-socket transport of
// SPEC_FULL.md §6: one AgentEvent per line, newline-delimited JSON,
// unidirectional client-to-server, no reply. Grounded on the
// accept-loop shape of internal/ws/server.go, adapted from a
// browser-facing websocket server to a local stream-socket listener
// (see DESIGN.md for why websockets were dropped here).
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"

	"github.com/google/uuid"

	"github.com/fahchen/aura/internal/events"
	"github.com/fahchen/aura/internal/logx"
	"github.com/fahchen/aura/internal/registry"
)

// Server accepts newline-delimited AgentEvent connections on a Unix
// domain socket and applies each decoded event to a Registry.
type Server struct {
	Path         string
	Registry     *registry.Registry
	DefaultAgent events.AgentType
}

// NewServer builds a Server bound to path, applying events against reg.
// Late-registered sessions (an event for an id the registry hasn't
// seen yet) default to events.AgentClaudeCode, per SPEC_FULL.md
// Scenario 4.
func NewServer(path string, reg *registry.Registry) *Server {
	return &Server{Path: path, Registry: reg, DefaultAgent: events.AgentClaudeCode}
}

// ListenAndServe removes a stale socket file, binds, and accepts
// connections until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if _, err := os.Stat(s.Path); err == nil {
		if err := os.Remove(s.Path); err != nil {
			return err
		}
	}

	ln, err := net.Listen("unix", s.Path)
	if err != nil {
		return err
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	logx.Infof("ipc: listening on %s", s.Path)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logx.Warnf("ipc: accept error: %v", err)
			return err
		}
		go s.handleConn(conn)
	}
}

// handleConn decodes newline-delimited events off a single connection.
// Each connection gets a diagnostic id for log correlation only — it
// never reaches the registry or the wire format.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	connID := uuid.NewString()
	logx.Debugf("ipc[%s]: connection opened", connID)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var applied int
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e events.AgentEvent
		if err := json.Unmarshal(line, &e); err != nil {
			logx.Tracef("ipc[%s]: skipping malformed line: %v", connID, err)
			continue
		}
		if err := e.Validate(); err != nil {
			logx.Tracef("ipc[%s]: skipping invalid event: %v", connID, err)
			continue
		}
		s.Registry.Apply(e, s.DefaultAgent)
		applied++
	}
	if err := scanner.Err(); err != nil {
		logx.Debugf("ipc[%s]: connection closed: %v", connID, err)
		return
	}
	logx.Debugf("ipc[%s]: connection closed, applied %d events", connID, applied)
}
