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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	log "github.com/secrepublic/secbot/internal/pkg/shared/logger"

	"github.com/secrepublic/secbot/internal/pkg/secbot/config"
	"github.com/secrepublic/secbot/internal/pkg/secbot/defense"
	"github.com/secrepublic/secbot/internal/pkg/secbot/ioc"
	"github.com/secrepublic/secbot/internal/pkg/secbot/mailer"
	"github.com/secrepublic/secbot/internal/pkg/secbot/pipeline"
	"github.com/secrepublic/secbot/internal/pkg/secbot/server"
	"github.com/secrepublic/secbot/internal/pkg/secbot/source"
	"github.com/secrepublic/secbot/internal/pkg/secbot/store"
	"github.com/secrepublic/secbot/internal/pkg/shared/fs"
	"github.com/secrepublic/secbot/internal/pkg/shared/pprof"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const progName = "secbot"

var version string
var buildTime string

func init() {
	cobra.OnInitialize(initConfig)
	if version == "" {
		version = "development"
	}
	// --version doubles as a cheap liveness probe
	rootCmd.Version = version
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.PersistentFlags().Bool("dev", false, "Enable development environment specific setting")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug messages for tracing and troubleshooting")
	runCmd.Flags().Bool("once", false, "Run a single digest + IOC cycle immediately and exit")
	runCmd.Flags().Bool("status", false, "Enable the status HTTP endpoint")
	runCmd.Flags().StringP("address", "a", "0.0.0.0", "IP address for the status HTTP endpoint to listen on")
	runCmd.Flags().IntP("port", "p", 8080, "TCP port for the status HTTP endpoint to listen on")
	runCmd.Flags().String("pprof", "", "Generate performance profiling file, can be set to cpu, memory, mutex, or block")
	runCmd.Flags().String("crontimes", "06:00", "Daily content-digest times, comma-separated HH:MM (local time)")
	runCmd.Flags().String("ioctime", "10:00", "Daily IOC/defense time, HH:MM (local time)")
	runCmd.Flags().String("newsurl", "", "News list page URL, empty disables the source")
	runCmd.Flags().String("advisoryurl", "", "Advisory RSS feed URL, empty disables the source")
	runCmd.Flags().String("blogurl", "", "Threat-analysis blog index URL, empty disables the source")
	runCmd.Flags().Int("newslimit", 20, "Max. news items to fetch per run (clamped to 1-50)")
	runCmd.Flags().Int("advisorylimit", 20, "Max. advisory items to fetch per run (clamped to 1-50)")
	runCmd.Flags().Int("bloglimit", 5, "Max. blog posts to fetch per run (clamped to 1-20)")
	runCmd.Flags().String("allowdomains", "", "Extra comma-separated domains to suppress from extracted indicators")
	runCmd.Flags().Int("fetchtimeout", 30, "Timeout in seconds for each outbound fetch")
	runCmd.Flags().IntP("cacheminutes", "c", 10, "Cache expiration time in minutes for fetched page and feed bodies")
	runCmd.Flags().String("datadir", "", "Directory for the indicator ledger, defaults to <prog dir>/data")
	runCmd.Flags().Bool("ipset", false, "Enable the ipset address-set mechanism")
	runCmd.Flags().Bool("suricata", false, "Enable the Suricata rule-set mechanism")
	runCmd.Flags().Bool("suricataip", false, "Also write Suricata drop rules for IP indicators")
	runCmd.Flags().String("suricataconfig", defense.DefaultSuricataConfig, "Suricata configuration file, tested before each reload")
	runCmd.Flags().String("suricatarules", defense.DefaultSuricataRules, "Rules file managed by the bot")
	runCmd.Flags().String("suricatapid", defense.DefaultSuricataPID, "Suricata PID file for the USR2 reload fallback")
	runCmd.Flags().String("smtphost", "", "SMTP server for outbound reports")
	runCmd.Flags().Int("smtpport", 465, "SMTP port, 465 uses implicit TLS")
	runCmd.Flags().String("smtpuser", "", "SMTP username, also the default sender address")
	runCmd.Flags().String("smtppass", "", "SMTP password")
	runCmd.Flags().String("smtpfrom", "", "Sender address when different from smtpuser")
	runCmd.Flags().String("teamrecipients", "", "Comma-separated operations-team addresses, they receive every report")
	runCmd.Flags().String("customerrecipients", "", "Comma-separated customer addresses, they receive content reports only")
	viper.BindPFlag("dev", rootCmd.PersistentFlags().Lookup("dev"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("once", runCmd.Flags().Lookup("once"))
	viper.BindPFlag("status", runCmd.Flags().Lookup("status"))
	viper.BindPFlag("address", runCmd.Flags().Lookup("address"))
	viper.BindPFlag("port", runCmd.Flags().Lookup("port"))
	viper.BindPFlag("pprof", runCmd.Flags().Lookup("pprof"))
	viper.BindPFlag("crontimes", runCmd.Flags().Lookup("crontimes"))
	viper.BindPFlag("ioctime", runCmd.Flags().Lookup("ioctime"))
	viper.BindPFlag("newsurl", runCmd.Flags().Lookup("newsurl"))
	viper.BindPFlag("advisoryurl", runCmd.Flags().Lookup("advisoryurl"))
	viper.BindPFlag("blogurl", runCmd.Flags().Lookup("blogurl"))
	viper.BindPFlag("newslimit", runCmd.Flags().Lookup("newslimit"))
	viper.BindPFlag("advisorylimit", runCmd.Flags().Lookup("advisorylimit"))
	viper.BindPFlag("bloglimit", runCmd.Flags().Lookup("bloglimit"))
	viper.BindPFlag("allowdomains", runCmd.Flags().Lookup("allowdomains"))
	viper.BindPFlag("fetchtimeout", runCmd.Flags().Lookup("fetchtimeout"))
	viper.BindPFlag("cacheminutes", runCmd.Flags().Lookup("cacheminutes"))
	viper.BindPFlag("datadir", runCmd.Flags().Lookup("datadir"))
	viper.BindPFlag("ipset", runCmd.Flags().Lookup("ipset"))
	viper.BindPFlag("suricata", runCmd.Flags().Lookup("suricata"))
	viper.BindPFlag("suricataip", runCmd.Flags().Lookup("suricataip"))
	viper.BindPFlag("suricataconfig", runCmd.Flags().Lookup("suricataconfig"))
	viper.BindPFlag("suricatarules", runCmd.Flags().Lookup("suricatarules"))
	viper.BindPFlag("suricatapid", runCmd.Flags().Lookup("suricatapid"))
	viper.BindPFlag("smtphost", runCmd.Flags().Lookup("smtphost"))
	viper.BindPFlag("smtpport", runCmd.Flags().Lookup("smtpport"))
	viper.BindPFlag("smtpuser", runCmd.Flags().Lookup("smtpuser"))
	viper.BindPFlag("smtppass", runCmd.Flags().Lookup("smtppass"))
	viper.BindPFlag("smtpfrom", runCmd.Flags().Lookup("smtpfrom"))
	viper.BindPFlag("teamrecipients", runCmd.Flags().Lookup("teamrecipients"))
	viper.BindPFlag("customerrecipients", runCmd.Flags().Lookup("customerrecipients"))
}

func initConfig() {
	viper.SetEnvPrefix(progName)
	viper.AutomaticEnv()
	config.LoadDotEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exit("Error returned from command", err)
	}
}

func exit(msg string, err error) {
	fmt.Println(msg+":", err)
	os.Exit(1)
}

var rootCmd = &cobra.Command{
	Use:   progName,
	Short: "Daily security content and IOC defense bot",
	Long: `
Secbot gathers security news, vulnerability advisories, and threat-analysis
posts on a daily schedule, extracts indicators of compromise from them,
deduplicates the indicators against its ledger, pushes the novel ones into
ipset and Suricata, and mails digests to the team and customer audiences.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build information",
	Long:  `Print the version and build information`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version, buildTime)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and the indicator ledger",
	Long:  `Load the configuration snapshot and the indicator ledger, exiting non-zero on any validation failure`,
	Run: func(cmd *cobra.Command, args []string) {
		log.Setup(viper.GetBool("debug"))
		cfg := loadConfig()
		st, err := store.Open(cfg.DataDir)
		if err != nil {
			exit("Invalid indicator ledger", err)
		}
		fmt.Printf("configuration ok, ledger at %s holds %d indicator(s)\n", st.Path(), st.Count())
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot",
	Long: `
Start secbot, either as a long-running daemon driven by the two daily
timelines, or with --once as a single immediate digest + IOC cycle that
exits 0 only when the cycle completed without errors.`,
	Run: func(cmd *cobra.Command, args []string) {
		log.Setup(viper.GetBool("debug"))
		log.Info(log.M{Msg: "Starting " + progName + " " + version})

		if p := viper.GetString("pprof"); p != "" {
			prof, err := pprof.GetProfiler(p)
			if err != nil {
				exit("Cannot start profiler", err)
			}
			defer prof.Stop()
		}

		cfg := loadConfig()
		st, err := store.Open(cfg.DataDir)
		if err != nil {
			exit("Cannot open indicator ledger", err)
		}

		runner := buildRunner(cfg, st)

		if viper.GetBool("once") {
			dres := runner.RunDigest(context.Background())
			ires := runner.RunIOC(context.Background())
			server.AddResult(dres)
			server.AddResult(ires)
			if n := len(dres.Errors) + len(ires.Errors); n > 0 {
				exit("Cycle finished with errors", fmt.Errorf("%d error(s), see log", n))
			}
			fmt.Println("cycle completed")
			return
		}

		if viper.GetBool("status") {
			go func() {
				if err := server.Start(viper.GetString("address"), viper.GetInt("port")); err != nil {
					exit("Cannot start status server", err)
				}
			}()
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			log.Info(log.M{Msg: "Shutdown requested"})
			cancel()
		}()

		sched := pipeline.NewScheduler(cfg.CronTimes, cfg.IOCTime,
			func(ctx context.Context) { server.AddResult(runner.RunDigest(ctx)) },
			func(ctx context.Context) { server.AddResult(runner.RunIOC(ctx)) })
		sched.Start(ctx)
	},
}

// loadConfig snapshots and validates the configuration, defaulting the data
// directory to <prog dir>/data
func loadConfig() config.Config {
	cfg := config.FromViper()
	if cfg.DataDir == "" {
		d, err := fs.GetDir(viper.GetBool("dev"))
		if err != nil {
			exit("Cannot get current directory??", err)
		}
		cfg.DataDir = path.Join(d, "data")
	}
	if err := cfg.Validate(); err != nil {
		exit("Invalid configuration", err)
	}
	return cfg
}

func buildRunner(cfg config.Config, st *store.Store) *pipeline.Runner {
	timeout := cfg.FetchTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	providers := []source.Provider{}
	if cfg.NewsURL != "" {
		providers = append(providers, source.NewNews(cfg.NewsURL, timeout, cfg.CacheMinutes))
	}
	if cfg.AdvisoryURL != "" {
		providers = append(providers, source.NewAdvisory(cfg.AdvisoryURL, timeout, cfg.CacheMinutes))
	}
	if cfg.BlogURL != "" {
		providers = append(providers, source.NewThreatBlog(cfg.BlogURL, timeout, cfg.CacheMinutes))
	}
	if len(providers) == 0 {
		log.Warn(log.M{Msg: "No source URLs configured, runs will fetch nothing"})
	}
	limits := map[string]int{
		source.NewsKind:       cfg.NewsLimit,
		source.AdvisoryKind:   cfg.AdvisoryLimit,
		source.ThreatBlogKind: cfg.BlogLimit,
	}

	appliers := []defense.Applier{}
	if cfg.EnableIpset {
		appliers = append(appliers, defense.NewIpset())
	}
	if cfg.EnableSuricata {
		s := defense.NewSuricata()
		s.ConfigPath = cfg.SuricataConfig
		s.RulesPath = cfg.SuricataRules
		s.PIDFile = cfg.SuricataPID
		s.IncludeIP = cfg.SuricataIncludeIP
		appliers = append(appliers, s)
	}
	if len(appliers) == 0 {
		log.Warn(log.M{Msg: "No defense mechanism enabled, indicators will be reported but not applied"})
	}

	mail := mailer.New(mailer.Config{
		Host:               cfg.SMTPHost,
		Port:               cfg.SMTPPort,
		User:               cfg.SMTPUser,
		Password:           cfg.SMTPPassword,
		From:               cfg.SMTPFrom,
		TeamRecipients:     cfg.TeamRecipients,
		CustomerRecipients: cfg.CustomerRecipients,
		Timeout:            timeout,
	})

	return pipeline.New(providers, limits, ioc.NewExtractor(cfg.AllowDomains), st, appliers, mail)
}
