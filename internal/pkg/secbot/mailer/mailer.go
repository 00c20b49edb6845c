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

// Package mailer delivers composed reports over SMTP. Delivery failures are
// logged and reported to the caller but never undo defense changes already
// applied during the run.
package mailer

import (
	"crypto/tls"
	"errors"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	log "github.com/secrepublic/secbot/internal/pkg/shared/logger"
)

// Audience selects the recipient list for a report
type Audience string

const (
	// AudienceTeam is the operations team, it receives every report
	AudienceTeam Audience = "team"
	// AudienceCustomer receives content reports only, never indicator detail
	AudienceCustomer Audience = "customer"
)

// Config holds the SMTP endpoint and the two recipient lists
type Config struct {
	Host               string
	Port               int
	User               string
	Password           string
	From               string
	TeamRecipients     []string
	CustomerRecipients []string
	Timeout            time.Duration
}

// Mailer sends reports to a configured audience
type Mailer struct {
	cfg Config
	// transport is swapped out in tests
	transport func(to []string, msg []byte) error
}

// New returns a Mailer using real SMTP delivery
func New(cfg Config) (m *Mailer) {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	m = &Mailer{cfg: cfg}
	m.transport = m.sendSMTP
	return
}

// Recipients returns the list configured for audience
func (m *Mailer) Recipients(audience Audience) []string {
	switch audience {
	case AudienceTeam:
		return m.cfg.TeamRecipients
	case AudienceCustomer:
		return m.cfg.CustomerRecipients
	}
	return nil
}

// Send delivers one message to the audience's recipients. An empty
// recipient list is skipped silently, that audience is simply not
// configured.
func (m *Mailer) Send(audience Audience, subject, body string) error {
	if audience != AudienceTeam && audience != AudienceCustomer {
		return errors.New("unknown audience " + string(audience))
	}
	to := m.Recipients(audience)
	if len(to) == 0 {
		log.Debug(log.M{Msg: "No " + string(audience) + " recipients configured, skipping " + subject})
		return nil
	}
	msg := buildMessage(m.cfg.From, to, subject, body)
	if err := m.transport(to, msg); err != nil {
		log.Warn(log.M{Msg: "Cannot send " + subject + " to " + string(audience) + ": " + err.Error()})
		return err
	}
	log.Info(log.M{Msg: "Sent " + subject + " to " + strconv.Itoa(len(to)) + " " + string(audience) + " recipient(s)"})
	return nil
}

func buildMessage(from string, to []string, subject, body string) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}

func (m *Mailer) auth() smtp.Auth {
	if m.cfg.User == "" {
		return nil
	}
	return smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
}

// sendSMTP delivers msg, using implicit TLS on port 465 and opportunistic
// STARTTLS otherwise. Both paths dial with the configured timeout and set a
// connection deadline, a hung server cannot stall a run.
func (m *Mailer) sendSMTP(to []string, msg []byte) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	d := &net.Dialer{Timeout: m.cfg.Timeout}

	var conn net.Conn
	var err error
	if m.cfg.Port == 465 {
		conn, err = tls.DialWithDialer(d, "tcp", addr, &tls.Config{ServerName: m.cfg.Host})
	} else {
		conn, err = d.Dial("tcp", addr)
	}
	if err != nil {
		return err
	}
	conn.SetDeadline(time.Now().Add(m.cfg.Timeout))

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()
	if m.cfg.Port != 465 {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err = c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
				return err
			}
		}
	}
	if a := m.auth(); a != nil {
		if err = c.Auth(a); err != nil {
			return err
		}
	}
	if err = c.Mail(m.cfg.From); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err = c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
