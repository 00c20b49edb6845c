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

// Package source implements the content providers the pipeline ingests from.
// The set of providers is closed: security news headlines, vulnerability
// advisories, and threat-analysis blog posts. New kinds are a code change,
// not configuration.
package source

import (
	"context"
	"time"
)

// ContentItem is a single piece of fetched content. Immutable once fetched.
type ContentItem struct {
	SourceKind string    `json:"source_kind"`
	Title      string    `json:"title"`
	Link       string    `json:"link"`
	Published  time.Time `json:"published_at"`
	Body       string    `json:"body"`
}

// Provider fetches content items from one upstream source
type Provider interface {
	// Kind returns the provider identifier (news|advisory|threatblog)
	Kind() string

	// Fetch returns up to limit items. The limit is clamped to the
	// provider's own cap, never rejected. Errors are classified through
	// the retry package: transient for timeouts/5xx/rate-limits,
	// permanent for malformed feeds and other 4xx.
	Fetch(ctx context.Context, limit int) ([]ContentItem, error)
}

// clampLimit forces limit into [1, max]
func clampLimit(limit, max int) int {
	if limit < 1 {
		return 1
	}
	if limit > max {
		return max
	}
	return limit
}
