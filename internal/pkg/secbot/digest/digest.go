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

// Package digest composes the plain-text reports that go out after each
// run. Three reports exist: security news and vulnerability advisories go to
// both audiences, the IOC report carries indicator detail and is restricted
// to the operations team. Output ordering is deterministic.
package digest

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/secrepublic/secbot/internal/pkg/secbot/ioc"
	"github.com/secrepublic/secbot/internal/pkg/secbot/source"
)

const (
	dateLayout    = "2006-01-02"
	subjectPrefix = "[secbot] "
	footer        = "\n-- sent automatically by secbot\n"
)

// Input is everything a finished run hands to the composer
type Input struct {
	Date       time.Time
	News       []source.ContentItem
	Advisories []source.ContentItem
	Indicators []ioc.Indicator
	// Degraded lists the sources and mechanisms that failed this run, one
	// "name: reason" line each
	Degraded []string
}

func header(title string, date time.Time) string {
	return title + " - " + date.Format(dateLayout) + "\n" +
		strings.Repeat("=", 50) + "\n\n"
}

func itemList(sb *strings.Builder, items []source.ContentItem) {
	if len(items) == 0 {
		sb.WriteString("No new items today.\n")
		return
	}
	for _, it := range items {
		sb.WriteString("- " + it.Title + " (" + it.Link + ")\n")
	}
}

func degradedSection(sb *strings.Builder, degraded []string) {
	if len(degraded) == 0 {
		return
	}
	sb.WriteString("\nDegraded this run:\n")
	for _, d := range degraded {
		sb.WriteString("- " + d + "\n")
	}
}

// NewsReport renders the security-news mail
func NewsReport(in Input) (subject, body string) {
	subject = subjectPrefix + "Security News " + in.Date.Format(dateLayout)
	var sb strings.Builder
	sb.WriteString(header("Security News", in.Date))
	itemList(&sb, in.News)
	degradedSection(&sb, in.Degraded)
	sb.WriteString(footer)
	return subject, sb.String()
}

// AdvisoryReport renders the vulnerability-advisories mail
func AdvisoryReport(in Input) (subject, body string) {
	subject = subjectPrefix + "Vulnerability Advisories " + in.Date.Format(dateLayout)
	var sb strings.Builder
	sb.WriteString(header("Vulnerability Advisories", in.Date))
	itemList(&sb, in.Advisories)
	degradedSection(&sb, in.Degraded)
	sb.WriteString(footer)
	return subject, sb.String()
}

// IOCReport renders the indicator-detail mail for the team audience
func IOCReport(in Input) (subject, body string) {
	subject = subjectPrefix + "Malicious IOC " + in.Date.Format(dateLayout)
	var sb strings.Builder
	sb.WriteString(header("Malicious IOC", in.Date))

	byKind := map[ioc.Kind][]string{}
	for _, ind := range in.Indicators {
		byKind[ind.Kind] = append(byKind[ind.Kind], ind.Value)
	}
	for _, sec := range []struct {
		label string
		kind  ioc.Kind
	}{
		{"IP", ioc.KindIP},
		{"HASH", ioc.KindHash},
		{"URL", ioc.KindURL},
	} {
		vals := byKind[sec.kind]
		sort.Strings(vals)
		sb.WriteString(sec.label + " (" + strconv.Itoa(len(vals)) + "):\n")
		for _, v := range vals {
			sb.WriteString("  - " + v + "\n")
		}
	}
	degradedSection(&sb, in.Degraded)
	sb.WriteString(footer)
	return subject, sb.String()
}
