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

package defense

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/secrepublic/secbot/internal/pkg/secbot/ioc"
	"github.com/secrepublic/secbot/internal/pkg/shared/cmdexec"
	"github.com/secrepublic/secbot/internal/pkg/shared/fs"
	log "github.com/secrepublic/secbot/internal/pkg/shared/logger"
)

// SID allocation per rule family. Suricata reserves SIDs below 1M for
// bundled signatures, these bases sit in the local-use range.
const (
	sidBaseIP   = 7000000
	sidBaseURL  = 7100000
	sidBaseHash = 7200000
	sidFamSpan  = 100000
)

// Defaults for a stock Suricata install
const (
	DefaultSuricataConfig = "/etc/suricata/suricata.yaml"
	DefaultSuricataRules  = "/etc/suricata/rules/secbot.rules"
	DefaultSuricataPID    = "/var/run/suricata.pid"
)

var (
	reRuleMsg = regexp.MustCompile(`msg:"SecBot malicious (IP|hash|URL) ([^"]+)"`)
	reRuleSID = regexp.MustCompile(`sid:([0-9]+);`)
)

// Suricata maintains a dedicated rules file of drop signatures for hash and
// URL indicators (and IPs when IncludeIP is set), reloading the engine after
// each change. Existing rules keep their SIDs across updates so the file can
// be merged, never clobbered.
type Suricata struct {
	Bin        string
	ScBin      string
	ConfigPath string
	RulesPath  string
	PIDFile    string
	IncludeIP  bool
	Run        cmdexec.Runner

	// dirty is set when rules are on disk but the engine has not confirmed
	// loading them, so the next Apply must reload even with nothing to add
	dirty bool
}

// NewSuricata returns a Suricata applier with stock-install defaults
func NewSuricata() *Suricata {
	return &Suricata{
		Bin:        cmdexec.FindBin("/usr/bin/suricata", "suricata"),
		ScBin:      cmdexec.FindBin("", "suricatasc"),
		ConfigPath: DefaultSuricataConfig,
		RulesPath:  DefaultSuricataRules,
		PIDFile:    DefaultSuricataPID,
		Run:        cmdexec.Run,
	}
}

func (a *Suricata) Name() string {
	return "suricata"
}

func (a *Suricata) Kinds() []ioc.Kind {
	k := []ioc.Kind{ioc.KindHash, ioc.KindURL}
	if a.IncludeIP {
		k = append(k, ioc.KindIP)
	}
	return k
}

func sidBase(k ioc.Kind) int {
	switch k {
	case ioc.KindIP:
		return sidBaseIP
	case ioc.KindURL:
		return sidBaseURL
	default:
		return sidBaseHash
	}
}

func famLabel(k ioc.Kind) string {
	switch k {
	case ioc.KindIP:
		return "IP"
	case ioc.KindURL:
		return "URL"
	default:
		return "hash"
	}
}

func famKind(label string) ioc.Kind {
	switch label {
	case "IP":
		return ioc.KindIP
	case "URL":
		return ioc.KindURL
	default:
		return ioc.KindHash
	}
}

func renderRule(ind ioc.Indicator, sid int) string {
	tail := `sid:` + strconv.Itoa(sid) + `; rev:1;)`
	switch ind.Kind {
	case ioc.KindIP:
		return `drop ip ` + ind.Value + ` any <> any any ` +
			`(msg:"SecBot malicious IP ` + ind.Value + `"; ` + tail
	case ioc.KindHash:
		keyword := "filesha256"
		if len(ind.Value) == 32 {
			keyword = "filemd5"
		}
		return `drop tcp any any -> any any ` +
			`(msg:"SecBot malicious hash ` + ind.Value + `"; ` +
			keyword + `; content:"` + ind.Value + `"; ` + tail
	default:
		host, uri := splitURL(ind.Value)
		return `drop http any any -> any any ` +
			`(msg:"SecBot malicious URL ` + ind.Value + `"; ` +
			`http.host; content:"` + host + `"; nocase; ` +
			`http.uri; content:"` + uri + `"; nocase; ` + tail
	}
}

func splitURL(raw string) (host, uri string) {
	u, err := url.Parse(raw)
	if err != nil {
		return raw, "/"
	}
	host = u.Hostname()
	uri = u.Path
	if uri == "" {
		uri = "/"
	}
	if u.RawQuery != "" {
		uri += "?" + u.RawQuery
	}
	return
}

// rulesState is what an existing rules file tells us: which values are
// already covered per family, and the highest SID seen per family
type rulesState struct {
	present map[string]bool
	maxSID  map[ioc.Kind]int
}

func parseRules(content string) rulesState {
	st := rulesState{present: map[string]bool{}, maxSID: map[ioc.Kind]int{}}
	for _, line := range strings.Split(content, "\n") {
		m := reRuleMsg.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		k := famKind(m[1])
		st.present[string(k)+":"+m[2]] = true
		if s := reRuleSID.FindStringSubmatch(line); s != nil {
			sid, err := strconv.Atoi(s[1])
			if err == nil && sid >= sidBase(k) && sid < sidBase(k)+sidFamSpan && sid > st.maxSID[k] {
				st.maxSID[k] = sid
			}
		}
	}
	return st
}

// Apply merges the batch into the rules file and reloads the engine. When
// every routed indicator is already covered and the engine has loaded the
// current file, both are left untouched and the batch is reported applied;
// rules written by an earlier run whose reload failed force a reload first.
func (a *Suricata) Apply(ctx context.Context, inds []ioc.Indicator) Report {
	batch := Route(inds, a.Kinds())
	if len(batch) == 0 {
		return applyAll(batch)
	}

	content := ""
	if fs.FileExist(a.RulesPath) {
		b, err := os.ReadFile(a.RulesPath)
		if err != nil {
			log.Warn(log.M{Msg: "Cannot read rules file " + a.RulesPath + ": " + err.Error()})
			return failAll(batch, err.Error())
		}
		content = string(b)
	}
	st := parseRules(content)

	added := 0
	var sb strings.Builder
	sb.WriteString(content)
	if content != "" && !strings.HasSuffix(content, "\n") {
		sb.WriteString("\n")
	}
	for _, ind := range batch {
		if st.present[ind.Key()] {
			continue
		}
		sid := st.maxSID[ind.Kind] + 1
		if sid <= sidBase(ind.Kind) {
			sid = sidBase(ind.Kind) + 1
		}
		st.maxSID[ind.Kind] = sid
		st.present[ind.Key()] = true
		sb.WriteString(renderRule(ind, sid) + "\n")
		added++
	}
	if added == 0 && !a.dirty {
		log.Debug(log.M{Msg: "All " + strconv.Itoa(len(batch)) + " indicator(s) already in " + a.RulesPath})
		return applyAll(batch)
	}

	if added > 0 {
		if err := fs.EnsureDir(filepath.Dir(a.RulesPath)); err != nil {
			return failAll(batch, err.Error())
		}
		if err := fs.ReplaceFile(sb.String(), a.RulesPath); err != nil {
			log.Warn(log.M{Msg: "Cannot write rules file " + a.RulesPath + ": " + err.Error()})
			return failAll(batch, err.Error())
		}
		a.dirty = true
		log.Info(log.M{Msg: "Appended " + strconv.Itoa(added) + " rule(s) to " + a.RulesPath})
	}

	if err := a.reload(ctx); err != nil {
		log.Warn(log.M{Msg: "Suricata reload failed: " + err.Error()})
		return failAll(batch, "reload failed: "+err.Error())
	}
	a.dirty = false
	return applyAll(batch)
}

// reload tests the engine configuration first, then reloads rules through
// suricatasc, falling back to a USR2 signal when the socket client is
// unavailable or refuses
func (a *Suricata) reload(ctx context.Context) error {
	if _, err := a.Run(ctx, a.Bin, []string{"-T", "-c", a.ConfigPath}, nil); err != nil {
		return errors.New("configuration test failed: " + err.Error())
	}
	if a.ScBin != "" {
		_, err := a.Run(ctx, a.ScBin, []string{"reload-rules"}, nil)
		if err == nil {
			log.Info(log.M{Msg: "Suricata rules reloaded via suricatasc"})
			return nil
		}
		log.Warn(log.M{Msg: "suricatasc reload failed, falling back to USR2: " + err.Error()})
	}
	return a.signal(ctx)
}

func (a *Suricata) signal(ctx context.Context) error {
	b, err := os.ReadFile(a.PIDFile)
	if err != nil {
		return errors.New("cannot read PID file " + a.PIDFile + ": " + err.Error())
	}
	pid := strings.TrimSpace(string(b))
	if pid == "" {
		return errors.New("empty PID file " + a.PIDFile)
	}
	if _, err := a.Run(ctx, "kill", []string{"-USR2", pid}, nil); err != nil {
		return err
	}
	log.Info(log.M{Msg: "Sent USR2 to Suricata PID " + pid})
	return nil
}

// Flush removes the managed rules file and reloads the engine
func (a *Suricata) Flush(ctx context.Context) error {
	if fs.FileExist(a.RulesPath) {
		if err := os.Remove(a.RulesPath); err != nil {
			return err
		}
	}
	if err := a.reload(ctx); err != nil {
		return err
	}
	a.dirty = false
	return nil
}
