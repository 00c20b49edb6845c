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

package tsv

import (
	"bytes"
	"testing"
)

type row struct {
	Kind      string
	Value     string
	Source    string
	lastIndex int
}

func (r *row) Defaults(in interface{}) {
	v, ok := in.(row)
	if !ok {
		return
	}
	if r.Kind == "" {
		r.Kind = v.Kind
	}
	if r.Value == "" {
		r.Value = v.Value
	}
	if r.Source == "" {
		r.Source = v.Source
	}
}

func (r *row) Next(b Castable) bool {
	switch r.lastIndex {
	case 0:
		r.Kind = b.String()
	case 1:
		r.Value = b.String()
	case 2:
		r.Source = b.String()
	default:
		return false
	}
	r.lastIndex++
	return true
}

var withHeader = []byte("kind\tvalue\tsource\n" +
	"ip\t203.0.113.7\tthreatblog\n" +
	"hash\td41d8cd98f00b204e9800998ecf8427e\n")

func TestParserWithHeader(t *testing.T) {
	p := NewParser(bytes.NewReader(withHeader))
	def := row{Source: "unknown"}

	rows := []row{}
	for {
		r := row{}
		next := p.Read(&r, def)
		if r.Value != "" {
			rows = append(rows, r)
		}
		if !next {
			break
		}
	}
	if err := p.Error(); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Kind != "ip" || rows[0].Value != "203.0.113.7" || rows[0].Source != "threatblog" {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Source != "unknown" {
		t.Fatalf("default not applied: %+v", rows[1])
	}
}

func TestParserWithoutHeader(t *testing.T) {
	p := NewParser(bytes.NewReader([]byte("url\thttp://example.com/x\tnews\n")))
	p.NoHeader = true

	r := row{}
	p.Read(&r, row{})
	if r.Kind != "url" || r.Source != "news" {
		t.Fatalf("unexpected row: %+v", r)
	}
}
