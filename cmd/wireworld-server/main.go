// Command wireworld-server runs the headless Wireworld simulator
// server: it accepts one client at a time, performs the R_INIT
// handshake, then serves R_FRAME requests until the client disconnects.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/wireworld/internal/statuspage"
	"github.com/sarchlab/wireworld/server"
)

type fileConfig struct {
	Port       int    `yaml:"port"`
	DiffFrames bool   `yaml:"diffFrames"`
	StatusAddr string `yaml:"statusAddr"`
}

func main() {
	var (
		port       int
		diffFrames bool
		statusAddr string
		configPath string
	)

	root := &cobra.Command{
		Use:   "wireworld-server",
		Short: "Headless Wireworld cellular-automaton simulator server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath != "" {
				cfg, err := loadFileConfig(configPath)
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("port") && cfg.Port != 0 {
					port = cfg.Port
				}
				if !cmd.Flags().Changed("diff-frames") {
					diffFrames = cfg.DiffFrames
				}
				if !cmd.Flags().Changed("status-addr") && cfg.StatusAddr != "" {
					statusAddr = cfg.StatusAddr
				}
			}
			return run(port, diffFrames, statusAddr)
		},
	}

	root.Flags().IntVar(&port, "port", 8000, "TCP listen port")
	root.Flags().BoolVar(&diffFrames, "diff-frames", false, "emit only changed sections per frame instead of the whole map")
	root.Flags().StringVar(&statusAddr, "status-addr", "", "address for the /healthz and /status HTTP endpoint (empty disables it)")
	root.Flags().StringVar(&configPath, "config", "", "optional YAML config file; flags override its values")

	if err := root.Execute(); err != nil {
		slog.Error("fatal", "error", err)
		atexit.Exit(1)
	}
}

func loadFileConfig(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func run(port int, diffFrames bool, statusAddr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	builder := server.NewListenerBuilder().
		WithAddr(fmt.Sprintf(":%d", port)).
		WithDiffEmitter(diffFrames)

	ln, err := builder.Build()
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", port, err)
	}
	atexit.Register(func() { _ = ln.Close() })

	printStartupSummary(port, diffFrames, statusAddr, ln.Addr().String())

	if statusAddr != "" {
		srv := &http.Server{
			Addr: statusAddr,
			Handler: statuspage.New(func() (statuspage.SessionStatus, bool) {
				sess := ln.CurrentSession()
				if sess == nil {
					return statuspage.SessionStatus{}, false
				}
				return statuspage.SessionStatus{
					State:      sess.State().String(),
					Width:      sess.Width(),
					Height:     sess.Height(),
					Sampling:   sess.Sampling(),
					Generation: sess.Generation(),
				}, true
			}),
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("status server stopped", "error", err)
			}
		}()
		atexit.Register(func() { _ = srv.Close() })
	}

	return ln.Serve(ctx)
}

func printStartupSummary(port int, diffFrames bool, statusAddr, actualAddr string) {
	t := table.NewWriter()
	t.SetTitle("wireworld-server")
	t.AppendHeader(table.Row{"Setting", "Value"})
	t.AppendRow(table.Row{"Listen address", actualAddr})
	t.AppendRow(table.Row{"Configured port", port})
	t.AppendRow(table.Row{"Diff-frame emission", diffFrames})
	if statusAddr == "" {
		t.AppendRow(table.Row{"Status endpoint", "disabled"})
	} else {
		t.AppendRow(table.Row{"Status endpoint", statusAddr})
	}
	fmt.Println(t.Render())
}
