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

// Package tsv reads tab-separated records through a small Parsable contract,
// so callers keep their row types and defaults in one place.
package tsv

import (
	"io"

	"github.com/valyala/tsvreader"
)

type Castable interface {
	// String cast the interface value into string
	String() string

	// Int cast the interface value into int
	Int() int
}

type Parsable interface {
	// Defaults set all Parsable empty value to value according to the given interface.
	Defaults(interface{})

	// Next set next Parsable field value to the Castable.
	Next(Castable) bool
}

type Parser struct {
	first  bool
	reader *tsvreader.Reader

	// NoHeader mark the data as no-header TSV.
	NoHeader bool
}

func NewParser(r io.Reader) *Parser {
	return &Parser{
		reader: tsvreader.New(r),
		first:  true,
	}
}

// Read fills v from the next row, applying def for any column the row is
// missing. It returns false once the input is exhausted.
func (p *Parser) Read(v Parsable, def interface{}) bool {
	if p.first && !p.NoHeader {
		if !p.reader.Next() {
			return false
		}

		for p.reader.HasCols() {
			p.reader.SkipCol()
		}

		p.first = false
	}

	hasNext := p.reader.Next()
	for p.reader.HasCols() {
		if !v.Next(p.reader) {
			p.reader.SkipCol()
		}
	}

	v.Defaults(def)
	return hasNext
}

// Error returns the first error encountered while scanning the input.
func (p *Parser) Error() error {
	return p.reader.Error()
}
