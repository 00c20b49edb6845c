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
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/secrepublic/secbot/internal/pkg/shared/cache"
	log "github.com/secrepublic/secbot/internal/pkg/shared/logger"
	"github.com/secrepublic/secbot/internal/pkg/shared/retry"

	"golang.org/x/time/rate"
)

const userAgent = "secbot/1.0 (+https://github.com/secrepublic/secbot)"

// fetcher is the HTTP client shared by all providers. Responses are cached
// for a short window so the digest and IOC timelines don't hammer the same
// upstream page, and outbound requests are rate limited to stay polite with
// sources that employ anti-bot measures.
type fetcher struct {
	hc  *http.Client
	cc  *cache.Cache
	lim *rate.Limiter
}

func newFetcher(timeout time.Duration, cacheMinutes int) *fetcher {
	cc, err := cache.New("fetch", cacheMinutes, 0)
	if err != nil {
		// bigcache only fails on invalid shard counts; fall through
		// without caching rather than refusing to fetch
		log.Warn(log.M{Msg: "Cannot initialize fetch cache: " + err.Error()})
	}
	return &fetcher{
		hc:  &http.Client{Timeout: timeout},
		cc:  cc,
		lim: rate.NewLimiter(rate.Limit(1), 1),
	}
}

// get downloads url, classifying failures per the transient/permanent
// taxonomy. A cached body is returned without touching the network.
func (f *fetcher) get(ctx context.Context, url string) ([]byte, error) {
	if f.cc != nil {
		if b, err := f.cc.Get(url); err == nil {
			log.Debug(log.M{Msg: "Returning cached body for " + url})
			return b, nil
		}
	}

	if err := f.lim.Wait(ctx); err != nil {
		return nil, retry.Transient(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := f.hc.Do(req)
	if err != nil {
		// covers timeouts, refused connections, DNS failures
		return nil, retry.Transient(err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusOK:
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
		return nil, retry.Transient(errors.New("HTTP " + strconv.Itoa(res.StatusCode) + " from " + url))
	default:
		return nil, retry.Permanent(errors.New("HTTP " + strconv.Itoa(res.StatusCode) + " from " + url))
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, retry.Transient(err)
	}
	if f.cc != nil {
		f.cc.Set(url, body)
	}
	return body, nil
}
