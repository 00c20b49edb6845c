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

package source

import (
	"context"
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	log "github.com/secrepublic/secbot/internal/pkg/shared/logger"
	"github.com/secrepublic/secbot/internal/pkg/shared/retry"
)

// AdvisoryKind identifies the vulnerability-advisory provider
const AdvisoryKind = "advisory"

const advisoryMaxLimit = 50

// Advisory fetches vulnerability advisories from an RSS feed
type Advisory struct {
	FeedURL string
	f       *fetcher
}

// NewAdvisory returns an Advisory provider fetching from feedURL
func NewAdvisory(feedURL string, timeout time.Duration, cacheMinutes int) *Advisory {
	return &Advisory{
		FeedURL: feedURL,
		f:       newFetcher(timeout, cacheMinutes),
	}
}

// Kind implements Provider
func (a *Advisory) Kind() string { return AdvisoryKind }

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

type rssFeed struct {
	Items []rssItem `xml:"channel>item"`
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parsePubDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Fetch implements Provider
func (a *Advisory) Fetch(ctx context.Context, limit int) ([]ContentItem, error) {
	limit = clampLimit(limit, advisoryMaxLimit)

	body, err := a.f.get(ctx, a.FeedURL)
	if err != nil {
		return nil, err
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, retry.Permanent(err)
	}

	items := []ContentItem{}
	for _, it := range feed.Items {
		if len(items) >= limit {
			break
		}
		title := strings.TrimSpace(it.Title)
		link := strings.TrimSpace(it.Link)
		if title == "" && link == "" {
			continue
		}
		items = append(items, ContentItem{
			SourceKind: AdvisoryKind,
			Title:      title,
			Link:       link,
			Published:  parsePubDate(it.PubDate),
			Body:       strings.TrimSpace(it.Description),
		})
	}

	log.Debug(log.M{Msg: "Parsed " + strconv.Itoa(len(items)) + " advisories", Src: AdvisoryKind})
	return items, nil
}
