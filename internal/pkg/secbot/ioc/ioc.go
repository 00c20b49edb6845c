// Copyright (c) 2026 SecRepublic and contributors, All rights reserved.
//
// This file is part of Secbot.
//
// Secbot is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation version 3 of the License.
//
// Secbot is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Secbot. If not, see <https://www.gnu.org/licenses/>.

// Package ioc defines the indicator-of-compromise model and the extractor
// that mines indicators out of fetched content.
package ioc

import (
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// Kind is the indicator type
type Kind string

const (
	// KindIP is an IPv4 address indicator
	KindIP Kind = "ip"
	// KindHash is an MD5 or SHA-256 file hash indicator
	KindHash Kind = "hash"
	// KindURL is a full URL indicator
	KindURL Kind = "url"
)

// Valid reports whether k is a known indicator kind
func (k Kind) Valid() bool {
	return k == KindIP || k == KindHash || k == KindURL
}

// Indicator is a single typed, normalized indicator. (Kind, Value) is
// globally unique in the store.
type Indicator struct {
	Kind      Kind      `json:"kind"`
	Value     string    `json:"value"`
	Source    string    `json:"source_kind"`
	FirstSeen time.Time `json:"first_seen_at"`
	LastSeen  time.Time `json:"last_seen_at"`
}

// Key returns the store key for the indicator
func (i Indicator) Key() string {
	return string(i.Kind) + ":" + i.Value
}

// Refang undoes the common defanging notations used in threat reports
func Refang(s string) string {
	s = strings.ReplaceAll(s, "[.]", ".")
	s = strings.ReplaceAll(s, "[:]", ":")
	return s
}

// NormalizeIP returns the canonical dotted-quad form of raw
func NormalizeIP(raw string) (string, error) {
	p := net.ParseIP(strings.TrimSpace(Refang(raw)))
	if p == nil {
		return "", errors.New("invalid IP address: " + raw)
	}
	v4 := p.To4()
	if v4 == nil {
		return "", errors.New("not an IPv4 address: " + raw)
	}
	return v4.String(), nil
}

// NormalizeHash lower-cases a hex digest; only MD5 (32) and SHA-256 (64)
// lengths are accepted
func NormalizeHash(raw string) (string, error) {
	h := strings.ToLower(strings.TrimSpace(raw))
	if len(h) != 32 && len(h) != 64 {
		return "", errors.New("unsupported hash length")
	}
	for _, c := range h {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", errors.New("not a hex digest: " + raw)
		}
	}
	return h, nil
}

// NormalizeURL canonicalizes raw: lower-cased scheme and host, fragment
// dropped, path and query preserved
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(Refang(raw))
	// matches often drag in trailing sentence punctuation
	raw = strings.TrimRight(raw, ".,;:!?)'\"")
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("unsupported scheme in " + raw)
	}
	if u.Host == "" {
		return "", errors.New("missing host in " + raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String(), nil
}
