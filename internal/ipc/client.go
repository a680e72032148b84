package ipc

import (
	"encoding/json"
	"net"
	"time"

	"github.com/fahchen/aura/internal/events"
	"github.com/fahchen/aura/internal/logx"
)

// ClientTimeout is the hook helper's connect and write deadline (the
// helper never reads from the socket, since the server does not reply).
const ClientTimeout = 5 * time.Second

// SendEvents connects to the socket at path and writes each event as
// one newline-delimited JSON line. Any failure (connect, write) is
// logged and swallowed: the hook helper always exits zero, per
// SPEC_FULL.md §6, since a missing daemon must never block the host
// agent's own hook pipeline.
func SendEvents(path string, evs []events.AgentEvent) {
	conn, err := net.DialTimeout("unix", path, ClientTimeout)
	if err != nil {
		logx.Debugf("ipc: could not connect to %s: %v", path, err)
		return
	}
	defer conn.Close()

	deadline := time.Now().Add(ClientTimeout)
	_ = conn.SetWriteDeadline(deadline)

	for _, e := range evs {
		line, err := json.Marshal(e)
		if err != nil {
			logx.Warnf("ipc: could not encode event %q: %v", e.Type, err)
			continue
		}
		line = append(line, '\n')
		if _, err := conn.Write(line); err != nil {
			logx.Debugf("ipc: write failed: %v", err)
			return
		}
	}
}
