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
	"testing"

	"github.com/secrepublic/secbot/internal/pkg/secbot/source"
)

func items(bodies ...string) []source.ContentItem {
	out := make([]source.ContentItem, 0, len(bodies))
	for _, b := range bodies {
		out = append(out, source.ContentItem{SourceKind: "threatblog", Body: b})
	}
	return out
}

func TestExtractScenario(t *testing.T) {
	x := NewExtractor(nil)
	got := x.Extract(items("C2 server at 203.0.113.7, hash d41d8cd98f00b204e9800998ecf8427e"))
	if len(got) != 2 {
		t.Fatalf("expected 2 indicators, got %d: %+v", len(got), got)
	}
	if got[0].Kind != KindHash || got[0].Value != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Fatalf("unexpected first indicator: %+v", got[0])
	}
	if got[1].Kind != KindIP || got[1].Value != "203.0.113.7" {
		t.Fatalf("unexpected second indicator: %+v", got[1])
	}
	if got[0].Source != "threatblog" {
		t.Fatal("source kind not carried")
	}
	if got[0].FirstSeen.IsZero() || !got[0].FirstSeen.Equal(got[0].LastSeen) {
		t.Fatal("timestamps not initialized")
	}
}

func TestExtractSuppressesPrivateRanges(t *testing.T) {
	x := NewExtractor(nil)
	got := x.Extract(items("connects to 192.168.1.5 then 127.0.0.1 and 169.254.3.4"))
	if len(got) != 0 {
		t.Fatalf("expected no indicators, got %+v", got)
	}

	got = x.Extract(items("resolver hardcoded to 8.8.8.8"))
	if len(got) != 1 || got[0].Value != "8.8.8.8" {
		t.Fatalf("expected the public IP, got %+v", got)
	}
}

func TestExtractAllowList(t *testing.T) {
	x := NewExtractor([]string{"vendor-sandbox.example"})
	got := x.Extract(items(
		"see https://www.virustotal.com/gui/file/abc for details",
		"report at http://vendor-sandbox.example/run/1",
		"payload from http://malware.test/x.bin",
	))
	if len(got) != 1 {
		t.Fatalf("expected 1 indicator, got %+v", got)
	}
	if got[0].Value != "http://malware.test/x.bin" {
		t.Fatal("unexpected survivor: " + got[0].Value)
	}
}

func TestExtractDedupAcrossItems(t *testing.T) {
	x := NewExtractor(nil)
	got := x.Extract(items(
		"C2 at 203.0.113.7",
		"same C2 again: 203.0.113.7 and defanged 203[.]0[.]113[.]7",
	))
	if len(got) != 1 {
		t.Fatalf("expected 1 deduplicated indicator, got %+v", got)
	}
}

func TestExtractHashKinds(t *testing.T) {
	x := NewExtractor(nil)
	got := x.Extract(items(
		"md5 d41d8cd98f00b204e9800998ecf8427e sha256 " +
			"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855 " +
			"sha1 da39a3ee5e6b4b0d3255bfef95601890afd80709",
	))
	if len(got) != 2 {
		t.Fatalf("expected md5+sha256 only, got %+v", got)
	}
	for _, ind := range got {
		if ind.Kind != KindHash {
			t.Fatalf("unexpected kind: %+v", ind)
		}
		if l := len(ind.Value); l != 32 && l != 64 {
			t.Fatalf("unexpected digest length %d", l)
		}
	}
}

func TestExtractNeverPanicsOnGarbage(t *testing.T) {
	x := NewExtractor(nil)
	got := x.Extract(items(
		"", "http://", "999.999.999.999", "\x00\x01\x02",
		"hash: 12345", "http:// broken [.] text",
	))
	if len(got) != 0 {
		t.Fatalf("expected nothing from garbage, got %+v", got)
	}
}

func TestExtractTitleIsScanned(t *testing.T) {
	x := NewExtractor(nil)
	got := x.Extract([]source.ContentItem{{
		SourceKind: "news",
		Title:      "Botnet sinkholed at 198.51.100.23",
	}})
	if len(got) != 1 || got[0].Value != "198.51.100.23" {
		t.Fatalf("title not scanned: %+v", got)
	}
}
