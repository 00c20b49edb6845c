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

// Package config assembles the immutable configuration snapshot the bot
// runs with. Values come from flags, SECBOT_* environment variables, and an
// optional .env file, all funneled through viper by the command layer; this
// package only reads the final state and validates it.
package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	log "github.com/secrepublic/secbot/internal/pkg/shared/logger"
	"github.com/secrepublic/secbot/internal/pkg/shared/str"
)

// Config is the runtime configuration snapshot, read once at startup
type Config struct {
	CronTimes []string
	IOCTime   string

	NewsURL       string
	AdvisoryURL   string
	BlogURL       string
	NewsLimit     int
	AdvisoryLimit int
	BlogLimit     int
	AllowDomains  []string
	FetchTimeout  time.Duration
	CacheMinutes  int

	DataDir string

	EnableIpset       bool
	EnableSuricata    bool
	SuricataIncludeIP bool
	SuricataConfig    string
	SuricataRules     string
	SuricataPID       string

	SMTPHost           string
	SMTPPort           int
	SMTPUser           string
	SMTPPassword       string
	SMTPFrom           string
	TeamRecipients     []string
	CustomerRecipients []string
}

// LoadDotEnv reads a .env file from the working directory when present.
// A missing file is not an error, only an actual read failure is reported.
func LoadDotEnv() {
	if err := godotenv.Load(); err == nil {
		log.Debug(log.M{Msg: "Loaded environment from .env"})
	}
}

// FromViper snapshots the current viper state into a Config
func FromViper() Config {
	return Config{
		CronTimes:          str.CsvToSlice(viper.GetString("crontimes")),
		IOCTime:            viper.GetString("ioctime"),
		NewsURL:            viper.GetString("newsurl"),
		AdvisoryURL:        viper.GetString("advisoryurl"),
		BlogURL:            viper.GetString("blogurl"),
		NewsLimit:          viper.GetInt("newslimit"),
		AdvisoryLimit:      viper.GetInt("advisorylimit"),
		BlogLimit:          viper.GetInt("bloglimit"),
		AllowDomains:       str.CsvToSlice(viper.GetString("allowdomains")),
		FetchTimeout:       time.Duration(viper.GetInt("fetchtimeout")) * time.Second,
		CacheMinutes:       viper.GetInt("cacheminutes"),
		DataDir:            viper.GetString("datadir"),
		EnableIpset:        viper.GetBool("ipset"),
		EnableSuricata:     viper.GetBool("suricata"),
		SuricataIncludeIP:  viper.GetBool("suricataip"),
		SuricataConfig:     viper.GetString("suricataconfig"),
		SuricataRules:      viper.GetString("suricatarules"),
		SuricataPID:        viper.GetString("suricatapid"),
		SMTPHost:           viper.GetString("smtphost"),
		SMTPPort:           viper.GetInt("smtpport"),
		SMTPUser:           viper.GetString("smtpuser"),
		SMTPPassword:       viper.GetString("smtppass"),
		SMTPFrom:           viper.GetString("smtpfrom"),
		TeamRecipients:     str.CsvToSlice(viper.GetString("teamrecipients")),
		CustomerRecipients: str.CsvToSlice(viper.GetString("customerrecipients")),
	}
}

func validTime(v string) bool {
	_, err := time.Parse("15:04", v)
	return err == nil && len(v) == 5
}

func validRecipients(addrs []string) error {
	for _, a := range addrs {
		at := strings.Index(a, "@")
		if at < 1 || at == len(a)-1 || strings.Count(a, "@") != 1 {
			return errors.New("invalid recipient address " + strconv.Quote(a))
		}
	}
	return nil
}

// Validate checks the snapshot. Any failure here is a permanent
// configuration error and the process should exit non-zero.
func (c Config) Validate() error {
	if len(c.CronTimes) == 0 {
		return errors.New("at least one digest time (crontimes) is required")
	}
	for _, t := range c.CronTimes {
		if !validTime(t) {
			return errors.New("invalid digest time " + strconv.Quote(t) + ", expected HH:MM")
		}
	}
	if !validTime(c.IOCTime) {
		return errors.New("invalid IOC time " + strconv.Quote(c.IOCTime) + ", expected HH:MM")
	}
	if c.DataDir == "" {
		return errors.New("data directory (datadir) is required")
	}
	if c.NewsLimit < 1 || c.AdvisoryLimit < 1 || c.BlogLimit < 1 {
		return errors.New("fetch limits must be positive")
	}
	if err := validRecipients(c.TeamRecipients); err != nil {
		return err
	}
	if err := validRecipients(c.CustomerRecipients); err != nil {
		return err
	}
	if (len(c.TeamRecipients) > 0 || len(c.CustomerRecipients) > 0) && c.SMTPHost == "" {
		return errors.New("smtphost is required when recipients are configured")
	}
	if c.SMTPHost != "" && (c.SMTPPort < 1 || c.SMTPPort > 65535) {
		return errors.New("invalid smtpport " + strconv.Itoa(c.SMTPPort))
	}
	return nil
}
