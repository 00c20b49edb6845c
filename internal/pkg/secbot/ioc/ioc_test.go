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
)

func TestNormalizeIP(t *testing.T) {
	tbl := []struct {
		in        string
		expected  string
		shouldErr bool
	}{
		{"203.0.113.7", "203.0.113.7", false},
		{" 8.8.8.8 ", "8.8.8.8", false},
		{"203[.]0[.]113[.]7", "203.0.113.7", false},
		{"999.1.1.1", "", true},
		{"fe80::1", "", true},
		{"not-an-ip", "", true},
	}
	for _, tt := range tbl {
		got, err := NormalizeIP(tt.in)
		if (err != nil) != tt.shouldErr {
			t.Errorf("NormalizeIP(%q) err = %v, shouldErr = %v", tt.in, err, tt.shouldErr)
		}
		if got != tt.expected {
			t.Errorf("NormalizeIP(%q) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}

func TestNormalizeHash(t *testing.T) {
	md5 := "D41D8CD98F00B204E9800998ECF8427E"
	got, err := NormalizeHash(md5)
	if err != nil {
		t.Fatal(err)
	}
	if got != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Fatal("expected lower-case hex, got " + got)
	}

	sha256 := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if _, err := NormalizeHash(sha256); err != nil {
		t.Fatal(err)
	}

	// SHA-1 length is not a supported kind
	if _, err := NormalizeHash("da39a3ee5e6b4b0d3255bfef95601890afd80709"); err == nil {
		t.Fatal("expected error for 40-char digest")
	}
	if _, err := NormalizeHash("zzzz8cd98f00b204e9800998ecf8427e"); err == nil {
		t.Fatal("expected error for non-hex input")
	}
}

func TestNormalizeURL(t *testing.T) {
	tbl := []struct {
		in        string
		expected  string
		shouldErr bool
	}{
		{"HTTP://Evil.Example.NET/Payload.bin", "http://evil.example.net/Payload.bin", false},
		{"http://evil.example.net/x?id=1#frag", "http://evil.example.net/x?id=1", false},
		{"http://evil.example.net/x.", "http://evil.example.net/x", false},
		{"hxxp://evil.example.net/", "", true},
		{"ftp://evil.example.net/", "", true},
		{"http://", "", true},
	}
	for _, tt := range tbl {
		got, err := NormalizeURL(tt.in)
		if (err != nil) != tt.shouldErr {
			t.Errorf("NormalizeURL(%q) err = %v, shouldErr = %v", tt.in, err, tt.shouldErr)
		}
		if got != tt.expected {
			t.Errorf("NormalizeURL(%q) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}

func TestIndicatorKey(t *testing.T) {
	i := Indicator{Kind: KindIP, Value: "203.0.113.7"}
	if i.Key() != "ip:203.0.113.7" {
		t.Fatal("unexpected key: " + i.Key())
	}
	if !KindHash.Valid() || Kind("domain").Valid() {
		t.Fatal("Kind.Valid misbehaving")
	}
}
