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
	"bytes"
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	log "github.com/secrepublic/secbot/internal/pkg/shared/logger"
	"github.com/secrepublic/secbot/internal/pkg/shared/retry"

	"golang.org/x/net/html"
)

// NewsKind identifies the security-news headline provider
const NewsKind = "news"

const newsMaxLimit = 50

// News fetches security news headlines from an HTML article-list page.
// The page has no usable RSS feed, so headlines are scraped from
// <span class="news_txt"> elements wrapped in links.
type News struct {
	BaseURL string
	f       *fetcher
}

// NewNews returns a News provider fetching from baseURL
func NewNews(baseURL string, timeout time.Duration, cacheMinutes int) *News {
	return &News{
		BaseURL: baseURL,
		f:       newFetcher(timeout, cacheMinutes),
	}
}

// Kind implements Provider
func (n *News) Kind() string { return NewsKind }

// Fetch implements Provider
func (n *News) Fetch(ctx context.Context, limit int) ([]ContentItem, error) {
	limit = clampLimit(limit, newsMaxLimit)

	body, err := n.f.get(ctx, n.BaseURL)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, retry.Permanent(err)
	}

	base, err := url.Parse(n.BaseURL)
	if err != nil {
		return nil, retry.Permanent(err)
	}

	spans := findAll(doc, func(node *html.Node) bool {
		return isElement(node, "span") && hasClass(node, "news_txt")
	})

	seen := map[string]bool{}
	items := []ContentItem{}
	for _, span := range spans {
		a := closest(span, "a")
		if a == nil {
			continue
		}
		href := attr(a, "href")
		if href == "" {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		link := base.ResolveReference(ref).String()
		if seen[link] {
			continue
		}
		seen[link] = true
		items = append(items, ContentItem{
			SourceKind: NewsKind,
			Title:      nodeText(span),
			Link:       link,
		})
		if len(items) >= limit {
			break
		}
	}

	if len(items) == 0 {
		// page layout changed or we got an error page with status 200
		return nil, retry.Permanent(errors.New("no headlines parsed from " + n.BaseURL))
	}
	log.Debug(log.M{Msg: "Parsed " + strconv.Itoa(len(items)) + " headlines", Src: NewsKind})
	return items, nil
}
