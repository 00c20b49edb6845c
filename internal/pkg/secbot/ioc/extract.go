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

package ioc

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/secrepublic/secbot/internal/pkg/secbot/source"
	"github.com/secrepublic/secbot/internal/pkg/shared/ip"
	"github.com/secrepublic/secbot/internal/pkg/shared/str"
)

var (
	ipv4Octet = `(?:25[0-5]|2[0-4][0-9]|1?[0-9]{1,2})`
	reIPv4    = regexp.MustCompile(`\b(?:` + ipv4Octet + `\.){3}` + ipv4Octet + `\b`)
	// SHA-256 before MD5 so a 64-hex digest is never consumed as two halves
	reHash = regexp.MustCompile(`\b(?:[a-fA-F0-9]{64}|[a-fA-F0-9]{32})\b`)
	reURL  = regexp.MustCompile(`(?i)https?://[A-Za-z0-9\-_.]+(?::[0-9]{1,5})?(?:/[^\s'"<>]*)?`)
)

// DefaultAllowDomains suppresses the vendor and documentation hosts that
// show up in article boilerplate rather than as indicators.
var DefaultAllowDomains = []string{
	"ahnlab.com",
	"boannews.com",
	"krcert.or.kr",
	"virustotal.com",
	"mitre.org",
	"microsoft.com",
	"github.com",
	"example.com",
}

// Extractor mines typed indicators out of content text
type Extractor struct {
	allow []string
	now   func() time.Time
}

// NewExtractor returns an Extractor with the given allow-list appended to
// the defaults. Pass nil to use the defaults alone.
func NewExtractor(allowDomains []string) *Extractor {
	allow := append([]string{}, DefaultAllowDomains...)
	for _, d := range allowDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			allow = str.AppendUniq(allow, d)
		}
	}
	return &Extractor{allow: allow, now: time.Now}
}

func (x *Extractor) allowed(value string) bool {
	for _, d := range x.allow {
		if str.CaseInsensitiveContains(value, d) {
			return true
		}
	}
	return false
}

// Extract scans the items' titles and bodies and returns the deduplicated
// indicators found, normalized and filtered per policy: private/reserved
// IPs and allow-listed values are dropped, malformed fragments are skipped.
// Results are sorted by kind then value so output is stable.
func (x *Extractor) Extract(items []source.ContentItem) []Indicator {
	found := map[string]Indicator{}
	now := x.now()

	add := func(kind Kind, value, src string) {
		ind := Indicator{
			Kind:      kind,
			Value:     value,
			Source:    src,
			FirstSeen: now,
			LastSeen:  now,
		}
		if _, ok := found[ind.Key()]; !ok {
			found[ind.Key()] = ind
		}
	}

	for _, item := range items {
		text := Refang(item.Title + "\n" + item.Body)

		for _, m := range reIPv4.FindAllString(text, -1) {
			v, err := NormalizeIP(m)
			if err != nil {
				continue
			}
			if priv, err := ip.IsPrivateIP(v); err != nil || priv {
				continue
			}
			if x.allowed(v) {
				continue
			}
			add(KindIP, v, item.SourceKind)
		}

		for _, m := range reHash.FindAllString(text, -1) {
			v, err := NormalizeHash(m)
			if err != nil {
				continue
			}
			add(KindHash, v, item.SourceKind)
		}

		for _, m := range reURL.FindAllString(text, -1) {
			v, err := NormalizeURL(m)
			if err != nil {
				continue
			}
			if x.allowed(v) {
				continue
			}
			add(KindURL, v, item.SourceKind)
		}
	}

	out := make([]Indicator, 0, len(found))
	for _, ind := range found {
		out = append(out, ind)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Value < out[j].Value
	})
	return out
}
