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

// Package store keeps the durable ledger of indicators already applied to
// the defense mechanisms. The ledger is the only persistent state the
// pipeline owns; losing it would re-apply every indicator on every run, so
// an unreadable or corrupt ledger is a startup error, never a silent reset.
package store

import (
	"errors"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/secrepublic/secbot/internal/pkg/secbot/ioc"
	"github.com/secrepublic/secbot/internal/pkg/shared/fs"
	log "github.com/secrepublic/secbot/internal/pkg/shared/logger"
	"github.com/secrepublic/secbot/internal/pkg/shared/tsv"
)

const ledgerFile = "indicators.tsv"

var ledgerHeader = strings.Join([]string{"kind", "value", "source", "first_seen", "last_seen"}, "\t")

// Store is the indicator ledger. Safe for one writer and many readers.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries map[string]ioc.Indicator
}

type ledgerRow struct {
	Kind      string
	Value     string
	Source    string
	FirstSeen string
	LastSeen  string
	lastIndex int
}

func (r *ledgerRow) Defaults(interface{}) {}

func (r *ledgerRow) Next(b tsv.Castable) bool {
	switch r.lastIndex {
	case 0:
		r.Kind = b.String()
	case 1:
		r.Value = b.String()
	case 2:
		r.Source = b.String()
	case 3:
		r.FirstSeen = b.String()
	case 4:
		r.LastSeen = b.String()
	default:
		return false
	}
	r.lastIndex++
	return true
}

func (r ledgerRow) indicator() (ioc.Indicator, error) {
	k := ioc.Kind(r.Kind)
	if !k.Valid() {
		return ioc.Indicator{}, errors.New("unknown indicator kind " + strconv.Quote(r.Kind))
	}
	if r.Value == "" {
		return ioc.Indicator{}, errors.New("empty indicator value for kind " + r.Kind)
	}
	first, err := time.Parse(time.RFC3339, r.FirstSeen)
	if err != nil {
		return ioc.Indicator{}, errors.New("bad first_seen for " + r.Value + ": " + err.Error())
	}
	last, err := time.Parse(time.RFC3339, r.LastSeen)
	if err != nil {
		return ioc.Indicator{}, errors.New("bad last_seen for " + r.Value + ": " + err.Error())
	}
	return ioc.Indicator{
		Kind:      k,
		Value:     r.Value,
		Source:    r.Source,
		FirstSeen: first,
		LastSeen:  last,
	}, nil
}

// Open loads (or creates) the ledger under dataDir
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, errors.New("data directory is not set")
	}
	if err := fs.EnsureDir(dataDir); err != nil {
		return nil, err
	}
	s := &Store{
		path:    path.Join(dataDir, ledgerFile),
		entries: map[string]ioc.Indicator{},
	}
	if !fs.FileExist(s.path) {
		if err := s.flushLocked(); err != nil {
			return nil, err
		}
		log.Info(log.M{Msg: "Created new indicator ledger at " + s.path})
		return s, nil
	}
	if err := s.load(); err != nil {
		return nil, errors.New("indicator ledger " + s.path + " is unreadable: " + err.Error())
	}
	log.Info(log.M{Msg: "Loaded " + strconv.Itoa(len(s.entries)) + " indicators from " + s.path})
	return s, nil
}

func (s *Store) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	p := tsv.NewParser(f)
	for {
		row := ledgerRow{}
		next := p.Read(&row, ledgerRow{})
		if row.Kind != "" || row.Value != "" {
			ind, err := row.indicator()
			if err != nil {
				return err
			}
			s.entries[ind.Key()] = ind
		}
		if !next {
			break
		}
	}
	return p.Error()
}

// flushLocked rewrites the ledger file; caller must hold the write lock
// (or have exclusive access during Open)
func (s *Store) flushLocked() error {
	rows := make([]ioc.Indicator, 0, len(s.entries))
	for _, ind := range s.entries {
		rows = append(rows, ind)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Kind != rows[j].Kind {
			return rows[i].Kind < rows[j].Kind
		}
		return rows[i].Value < rows[j].Value
	})

	var sb strings.Builder
	sb.WriteString(ledgerHeader + "\n")
	for _, r := range rows {
		sb.WriteString(strings.Join([]string{
			string(r.Kind),
			r.Value,
			r.Source,
			r.FirstSeen.UTC().Format(time.RFC3339),
			r.LastSeen.UTC().Format(time.RFC3339),
		}, "\t") + "\n")
	}
	return fs.ReplaceFile(sb.String(), s.path)
}

// IsKnown reports whether the indicator is already in the ledger
func (s *Store) IsKnown(ind ioc.Indicator) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[ind.Key()]
	return ok
}

// FilterNew returns the subset of inds not yet known, without mutating the
// store. Input order is preserved.
func (s *Store) FilterNew(inds []ioc.Indicator) []ioc.Indicator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []ioc.Indicator{}
	for _, ind := range inds {
		if _, ok := s.entries[ind.Key()]; !ok {
			out = append(out, ind)
		}
	}
	return out
}

// Record persists ind: first seen now if absent, last seen refreshed if
// present. Idempotent.
func (s *Store) Record(ind ioc.Indicator, now time.Time) error {
	return s.RecordBatch([]ioc.Indicator{ind}, now)
}

// RecordBatch persists inds in one ledger rewrite
func (s *Store) RecordBatch(inds []ioc.Indicator, now time.Time) error {
	if len(inds) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ind := range inds {
		if existing, ok := s.entries[ind.Key()]; ok {
			existing.LastSeen = now
			s.entries[ind.Key()] = existing
			continue
		}
		ind.FirstSeen = now
		ind.LastSeen = now
		s.entries[ind.Key()] = ind
	}
	return s.flushLocked()
}

// Count returns the number of ledger entries
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Path returns the ledger file location
func (s *Store) Path() string {
	return s.path
}
