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

// ThreatBlogKind identifies the malware-analysis blog provider
const ThreatBlogKind = "threatblog"

const threatBlogMaxLimit = 20

// ThreatBlog scrapes a malware-analysis blog that publishes IOC lists in its
// posts but offers no feed. The index page lists posts under
// <h2 class="entry-title"><a href=...>; each post body is fetched separately
// and carried as text for the extractor.
type ThreatBlog struct {
	BaseURL string
	f       *fetcher
}

// NewThreatBlog returns a ThreatBlog provider fetching from baseURL
func NewThreatBlog(baseURL string, timeout time.Duration, cacheMinutes int) *ThreatBlog {
	return &ThreatBlog{
		BaseURL: baseURL,
		f:       newFetcher(timeout, cacheMinutes),
	}
}

// Kind implements Provider
func (t *ThreatBlog) Kind() string { return ThreatBlogKind }

// Fetch implements Provider. A post page that fails to download is skipped
// with a warning; only the index page is load-bearing.
func (t *ThreatBlog) Fetch(ctx context.Context, limit int) ([]ContentItem, error) {
	limit = clampLimit(limit, threatBlogMaxLimit)

	body, err := t.f.get(ctx, t.BaseURL)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, retry.Permanent(err)
	}

	base, err := url.Parse(t.BaseURL)
	if err != nil {
		return nil, retry.Permanent(err)
	}

	titles := findAll(doc, func(node *html.Node) bool {
		return isElement(node, "h2") && hasClass(node, "entry-title")
	})

	posts := []ContentItem{}
	for _, h2 := range titles {
		if len(posts) >= limit {
			break
		}
		links := findAll(h2, func(node *html.Node) bool {
			return isElement(node, "a") && attr(node, "href") != ""
		})
		if len(links) == 0 {
			continue
		}
		a := links[0]
		ref, err := url.Parse(attr(a, "href"))
		if err != nil {
			continue
		}
		posts = append(posts, ContentItem{
			SourceKind: ThreatBlogKind,
			Title:      nodeText(a),
			Link:       base.ResolveReference(ref).String(),
		})
	}

	if len(posts) == 0 {
		return nil, retry.Permanent(errors.New("no posts parsed from " + t.BaseURL))
	}

	items := []ContentItem{}
	for _, p := range posts {
		page, err := t.f.get(ctx, p.Link)
		if err != nil {
			log.Warn(log.M{Msg: "Skipping post " + p.Link + ": " + err.Error(), Src: ThreatBlogKind})
			continue
		}
		postDoc, err := html.Parse(bytes.NewReader(page))
		if err != nil {
			log.Warn(log.M{Msg: "Skipping unparsable post " + p.Link, Src: ThreatBlogKind})
			continue
		}
		p.Body = nodeText(postDoc)
		items = append(items, p)
	}

	log.Debug(log.M{Msg: "Fetched " + strconv.Itoa(len(items)) + " posts", Src: ThreatBlogKind})
	return items, nil
}
