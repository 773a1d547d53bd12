package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"PaperPen/internal/config"
	"PaperPen/internal/export"
	remote "PaperPen/internal/net"
	"PaperPen/internal/state"
	"PaperPen/internal/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	configPath string
	logLevel   string
	cfg        config.Config
	log        *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "paperpen",
		Short:         "Paper and pen drawing on layered raster sheets",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "paperpen.toml", "settings file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	run := a.runCmd()
	root.RunE = run.RunE
	root.Flags().AddFlagSet(run.Flags())
	root.AddCommand(run, a.serveCmd(), a.replayCmd(), a.discoverCmd(), a.configCmd())
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	a.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	return nil
}

func (a *app) newSession() (*state.Session, error) {
	opts, err := a.cfg.SessionOptions(a.log)
	if err != nil {
		return nil, err
	}
	if path := a.cfg.Canvas.Background; path != "" {
		img, err := export.LoadBackground(path)
		if err != nil {
			a.log.Warn("[background] not loaded", "path", path, "err", err)
		} else {
			opts.Background = img
		}
	}
	return state.NewSession(opts), nil
}

func (a *app) runCmd() *cobra.Command {
	var withRemote bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the drawing window (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("remote") {
				a.cfg.Remote.Enabled = withRemote
			}
			s, err := a.newSession()
			if err != nil {
				return err
			}
			exp, err := a.cfg.ExportOptions()
			if err != nil {
				return err
			}
			opts := ui.Options{
				Export:     exp,
				Background: a.cfg.Canvas.Background,
				Logger:     a.log,
			}
			if a.cfg.Remote.Enabled {
				opts.ShareLink = a.shareLink(a.cfg.Remote.Addr)
				opts.Started = func(ctx context.Context, exec func(func())) {
					hub := remote.NewHub(s, remote.HubOptions{Exec: exec, Export: exp, Logger: a.log})
					go a.serveRemote(ctx, hub)
				}
			}
			ui.RunApp(s, opts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withRemote, "remote", false, "accept remote pads over websocket")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a headless session driven by remote pads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if addr != "" {
				a.cfg.Remote.Addr = addr
			}

			s, err := a.newSession()
			if err != nil {
				return err
			}
			exp, err := a.cfg.ExportOptions()
			if err != nil {
				return err
			}
			d := remote.NewDispatcher()
			hub := remote.NewHub(s, remote.HubOptions{Exec: d.Do, Export: exp, Logger: a.log})
			go d.Run(ctx)
			return a.serveRemote(ctx, hub)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

// serveRemote listens until ctx is done, advertising the session over
// mDNS while it does.
func (a *app) serveRemote(ctx context.Context, hub *remote.Hub) error {
	err := hub.ListenAndServe(ctx, a.cfg.Remote.Addr, func(addr net.Addr) {
		port, err := remote.Port(addr)
		if err != nil {
			a.log.Warn("[remote] no port", "err", err)
			return
		}
		fmt.Fprintln(os.Stderr, "Share link:", remote.ShareLink(remote.OutgoingIP(), port))
		if !a.cfg.Remote.MDNS {
			return
		}
		server, err := remote.Advertise(a.cfg.Remote.Instance, port)
		if err != nil {
			a.log.Warn("[mdns] advertise failed", "err", err)
			return
		}
		go func() {
			<-ctx.Done()
			_ = server.Shutdown()
		}()
	})
	if err != nil {
		a.log.Error("[remote] stopped", "err", err)
	}
	return err
}

func (a *app) shareLink(addr string) string {
	port := 0
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		fmt.Sscan(addr[i+1:], &port)
	}
	return remote.ShareLink(remote.OutgoingIP(), port)
}

func (a *app) replayCmd() *cobra.Command {
	var out string
	var pdf bool
	cmd := &cobra.Command{
		Use:   "replay LOG",
		Short: "Apply a JSON-lines message log headless and export the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSession()
			if err != nil {
				return err
			}
			exp, err := a.cfg.ExportOptions()
			if err != nil {
				return err
			}
			f, err := os.Open(filepath.Clean(args[0]))
			if err != nil {
				return err
			}
			defer f.Close()
			if _, err := remote.Replay(s, f, exp, a.log); err != nil {
				return err
			}

			art, err := s.Export(exp)
			if err != nil {
				return err
			}
			if out == "" {
				out = art.Filename
			}
			return writeArtifact(out, art, pdf || a.cfg.Export.PDF, s.Store().Active().Name)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: named after the active layer)")
	cmd.Flags().BoolVar(&pdf, "pdf", false, "also write an A4 PDF sheet")
	return cmd
}

func writeArtifact(path string, art export.Artifact, pdf bool, title string) error {
	if err := os.WriteFile(path, art.Data, 0o644); err != nil {
		return err
	}
	if !pdf {
		return nil
	}
	f, err := os.Create(strings.TrimSuffix(path, filepath.Ext(path)) + ".pdf")
	if err != nil {
		return err
	}
	if err := export.WritePDF(f, art, title); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (a *app) discoverCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List sessions advertised on the local network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			found := 0
			err := remote.Browse(cmd.Context(), timeout, func(p remote.Peer) {
				found++
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tws://%s/ws\n", p.Instance, p.Addr)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			if found == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no sessions found")
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "how long to listen")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.cfg.Write(cmd.OutOrStdout())
		},
	}
}
