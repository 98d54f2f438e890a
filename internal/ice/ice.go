// Package ice turns configured STUN/TURN entries into the descriptors
// handed to browsers before they build a peer connection.
package ice

import (
	"fmt"
	"strings"

	"github.com/pion/stun/v3"
	"github.com/pion/webrtc/v4"
)

// Entry is one configured server. URLs use the stun:, stuns:, turn: or
// turns: schemes.
type Entry struct {
	URLs       []string
	Username   string
	Credential string
}

// DefaultEntries is used when nothing is configured.
func DefaultEntries() []Entry {
	return []Entry{{URLs: []string{"stun:stun.l.google.com:19302"}}}
}

// Servers validates entries and returns them as webrtc ICE servers. TURN
// entries must carry credentials.
func Servers(entries []Entry) ([]webrtc.ICEServer, error) {
	out := make([]webrtc.ICEServer, 0, len(entries))
	for i, e := range entries {
		urls := make([]string, 0, len(e.URLs))
		needsAuth := false
		for _, raw := range e.URLs {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			u, err := stun.ParseURI(raw)
			if err != nil {
				return nil, fmt.Errorf("ice server %d: parse %q: %w", i, raw, err)
			}
			if u.Scheme == stun.SchemeTypeTURN || u.Scheme == stun.SchemeTypeTURNS {
				needsAuth = true
			}
			urls = append(urls, raw)
		}
		if len(urls) == 0 {
			continue
		}
		if needsAuth && (e.Username == "" || e.Credential == "") {
			return nil, fmt.Errorf("ice server %d: turn urls need username and credential", i)
		}

		s := webrtc.ICEServer{URLs: urls}
		if e.Username != "" {
			s.Username = e.Username
		}
		if e.Credential != "" {
			s.Credential = e.Credential
		}
		out = append(out, s)
	}
	return out, nil
}
