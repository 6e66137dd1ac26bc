// ksadmin - a terminal admin console for the kitchensink accounts backend.
//
// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ksadmin/ksadmin/internal/api"
	"github.com/ksadmin/ksadmin/internal/cli"
	"github.com/ksadmin/ksadmin/internal/config"
	"github.com/ksadmin/ksadmin/internal/demo"
	"github.com/ksadmin/ksadmin/internal/export"
	"github.com/ksadmin/ksadmin/internal/idle"
	"github.com/ksadmin/ksadmin/internal/logging"
	"github.com/ksadmin/ksadmin/internal/session"
	"github.com/ksadmin/ksadmin/internal/settings"
	"github.com/ksadmin/ksadmin/internal/storage"
	"github.com/ksadmin/ksadmin/internal/ui/console"
)

// Version information (set at build time)
var (
	Version   = "0.2.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference so background callbacks (idle watcher,
// session subscription, config watcher) can inject messages.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func send(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func main() {
	var (
		demoMode    = flag.Bool("demo", false, "run against a built-in in-memory backend")
		plainMode   = flag.Bool("plain", false, "line-oriented shell instead of the full-screen console")
		configPath  = flag.String("config", "", "config file path (default ~/.ksadmin/config.toml)")
		serverURL   = flag.String("server", "", "backend base URL (overrides config)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("ksadmin %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*demoMode, *plainMode, *configPath, *serverURL); err != nil {
		fmt.Fprintf(os.Stderr, "ksadmin: %v\n", err)
		os.Exit(1)
	}
}

func run(demoMode, plainMode bool, configPath, serverURL string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
		if err != nil {
			return err
		}
	} else {
		cfg, err = config.Load()
		if err != nil {
			// Load falls back to defaults on a broken file; keep going
			// but tell the user their file was ignored.
			fmt.Fprintf(os.Stderr, "ksadmin: %v (using defaults)\n", err)
		}
	}

	if err := config.EnsureDir(); err != nil {
		return err
	}
	dir, err := config.Dir()
	if err != nil {
		return err
	}

	logCloser, err := logging.Setup(dir, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	log := logging.Component("main")
	log.Info().Str("version", Version).Msg("starting")

	baseURL := cfg.Server.BaseURL
	if serverURL != "" {
		baseURL = serverURL
	}

	if demoMode {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("demo backend: %w", err)
		}
		go func() {
			if err := http.Serve(ln, demo.NewServer().Handler()); err != nil {
				log.Error().Err(err).Msg("demo backend stopped")
			}
		}()
		baseURL = "http://" + ln.Addr().String()
		log.Info().Str("url", baseURL).Msg("demo backend listening")
		fmt.Fprintf(os.Stderr, "demo backend on %s, sign in as %s / %s\n",
			baseURL, demo.DemoAdminEmail, demo.DemoAdminPassword)
	}

	store, err := storage.Open(filepath.Join(dir, "ksadmin.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	// The client needs the session's token and the session needs the
	// client for server calls, so the token source reads through a
	// pointer that is filled in right after.
	var sess *session.Store
	client := api.NewClient(baseURL, func() string {
		if sess == nil {
			return ""
		}
		return sess.Token()
	}).WithTimeout(cfg.RequestTimeout()).WithMaxRetries(cfg.Server.MaxRetries)

	sess = session.NewStore(client, store)
	client.WithUnauthorizedHook(func() {
		if sess.HandleUnauthorized() {
			log.Warn().Msg("session rejected by server, local state cleared")
		}
	})

	if sess.Restore() {
		log.Info().Str("email", sess.Identity().Email).Msg("session restored")
	}

	prefs := settings.NewService(store)
	exporter := export.New(filepath.Join(dir, "exports"))

	if plainMode {
		return cli.NewShell(sess, client, exporter, dir).Run()
	}

	var watcher *idle.Watcher
	watcher = idle.New(cfg.IdleTimeout(), cfg.WarningLead(),
		func() { send(console.IdleWarningMsg{Deadline: watcher.Deadline()}) },
		func() { send(console.IdleTimeoutMsg{}) },
	)
	defer watcher.Stop()

	m := console.New(console.Deps{
		Config:   cfg,
		Session:  sess,
		Client:   client,
		Watcher:  watcher,
		Settings: prefs,
		Exporter: exporter,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	programMu.Lock()
	programRef = p
	programMu.Unlock()

	unsubSess := sess.Subscribe(func(active bool) {
		send(console.SessionActiveMsg{Active: active})
	})
	defer unsubSess()

	unsubPrefs := prefs.Subscribe(func(st settings.Settings) {
		send(console.SettingsChangedMsg{Settings: st})
	})
	defer unsubPrefs()

	if tomlPath, perr := config.PathTOML(); perr == nil {
		cw, werr := config.NewWatcher(tomlPath,
			func(c *config.Config) { send(console.ConfigReloadedMsg{Config: c}) },
			func(werr error) { log.Warn().Err(werr).Msg("config reload failed") },
		)
		if werr == nil {
			if werr = cw.Watch(); werr == nil {
				defer cw.Close()
			}
		}
		if werr != nil {
			log.Warn().Err(werr).Msg("config watcher disabled")
		}
	}

	_, err = p.Run()
	return err
}
