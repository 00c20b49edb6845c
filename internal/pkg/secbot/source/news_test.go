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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/secrepublic/secbot/internal/pkg/shared/retry"
)

const newsPage = `<html><body>
<table>
<tr><td><a href="/media/view.asp?idx=1"><span class="news_txt">First headline</span></a></td></tr>
<tr><td><a href="/media/view.asp?idx=2"><span class="news_txt">Second headline</span></a></td></tr>
<tr><td><a href="/media/view.asp?idx=2"><span class="news_txt">Second headline repeated</span></a></td></tr>
<tr><td><span class="news_txt">Orphan without link</span></td></tr>
<tr><td><a href="/media/view.asp?idx=3"><span class="news_txt">Third headline</span></a></td></tr>
</table>
</body></html>`

func TestNewsFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(newsPage))
	}))
	defer ts.Close()

	n := NewNews(ts.URL, 5*time.Second, 1)
	if n.Kind() != NewsKind {
		t.Fatal("unexpected kind: " + n.Kind())
	}

	items, err := n.Fetch(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "First headline" {
		t.Fatal("unexpected title: " + items[0].Title)
	}
	if !strings.HasPrefix(items[0].Link, ts.URL) {
		t.Fatal("expected absolute link, got: " + items[0].Link)
	}
	if items[0].SourceKind != NewsKind {
		t.Fatal("unexpected source kind: " + items[0].SourceKind)
	}
}

func TestNewsFetchDedupesLinks(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(newsPage))
	}))
	defer ts.Close()

	items, err := NewNews(ts.URL, 5*time.Second, 1).Fetch(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 deduplicated items, got %d", len(items))
	}
}

func TestNewsFetchEmptyPageIsPermanent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>maintenance</body></html>"))
	}))
	defer ts.Close()

	_, err := NewNews(ts.URL, 5*time.Second, 1).Fetch(context.Background(), 5)
	if !retry.IsPermanent(err) {
		t.Fatal("expected permanent error for page without headlines, got: ", err)
	}
}
