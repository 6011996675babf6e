// Command wireworld-client connects to a Wireworld simulator server,
// sends an initial map sampled from an image, and drives the server's
// frame emission at a configurable pace.
package main

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"os/signal"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/wireworld/cell"
	"github.com/sarchlab/wireworld/client"
	"github.com/sarchlab/wireworld/imageadapter"
)

type fileConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Map          string `yaml:"map"`
	CellSize     int    `yaml:"cellSize"`
	UpdateRateMs int    `yaml:"updateRateMs"`
	Sampling     int    `yaml:"sampling"`
	SnapshotDir  string `yaml:"snapshotDir"`
}

type options struct {
	host         string
	port         int
	mapPath      string
	cellSize     int
	updateRateMs int
	sampling     int
	snapshotDir  string
	configPath   string
}

func main() {
	var opts options

	root := &cobra.Command{
		Use:   "wireworld-client",
		Short: "Remote display client for the Wireworld simulator server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.configPath != "" {
				if err := applyFileConfig(cmd, &opts); err != nil {
					return err
				}
			}
			return run(opts)
		},
	}

	root.Flags().StringVar(&opts.host, "host", "localhost", "simulator server host")
	root.Flags().IntVar(&opts.port, "port", 8000, "simulator server port")
	root.Flags().StringVar(&opts.mapPath, "map", "", "path to the initial-map image (required)")
	root.Flags().IntVar(&opts.cellSize, "cell-size", 1, "pixels per cell when sampling the initial map")
	root.Flags().IntVar(&opts.updateRateMs, "update-rate-ms", 0, "minimum interval between display updates; 0 = free-run")
	root.Flags().IntVar(&opts.sampling, "sampling", 1, "generations per emitted frame")
	root.Flags().StringVar(&opts.snapshotDir, "snapshot-dir", "", "directory to write a PNG snapshot of each displayed frame (empty disables it)")
	root.Flags().StringVar(&opts.configPath, "config", "", "optional YAML config file; flags override its values")

	if err := root.Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func applyFileConfig(cmd *cobra.Command, opts *options) error {
	data, err := os.ReadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("read config %s: %w", opts.configPath, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", opts.configPath, err)
	}

	if !cmd.Flags().Changed("host") && cfg.Host != "" {
		opts.host = cfg.Host
	}
	if !cmd.Flags().Changed("port") && cfg.Port != 0 {
		opts.port = cfg.Port
	}
	if !cmd.Flags().Changed("map") && cfg.Map != "" {
		opts.mapPath = cfg.Map
	}
	if !cmd.Flags().Changed("cell-size") && cfg.CellSize != 0 {
		opts.cellSize = cfg.CellSize
	}
	if !cmd.Flags().Changed("update-rate-ms") {
		opts.updateRateMs = cfg.UpdateRateMs
	}
	if !cmd.Flags().Changed("sampling") && cfg.Sampling != 0 {
		opts.sampling = cfg.Sampling
	}
	if !cmd.Flags().Changed("snapshot-dir") && cfg.SnapshotDir != "" {
		opts.snapshotDir = cfg.SnapshotDir
	}
	return nil
}

func run(opts options) error {
	if opts.mapPath == "" {
		return fmt.Errorf("wireworld-client: --map is required")
	}

	f, err := os.Open(opts.mapPath)
	if err != nil {
		return fmt.Errorf("wireworld-client: open map %s: %w", opts.mapPath, err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("wireworld-client: decode map %s: %w", opts.mapPath, err)
	}

	grid, err := imageadapter.ImageToGrid(img, opts.cellSize)
	if err != nil {
		return fmt.Errorf("wireworld-client: %w", err)
	}

	printStartupSummary(opts, grid.Width, grid.Height)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := slog.Default()
	addr := fmt.Sprintf("%s:%d", opts.host, opts.port)

	sess, err := client.Dial(ctx, addr, grid.Width, grid.Height, opts.sampling, grid.Cells(), log)
	if err != nil {
		return err
	}
	defer sess.Close()

	display := &cliDisplay{snapshotDir: opts.snapshotDir}
	fb := client.NewFrameBuffer(client.DefaultMaxCredit, opts.updateRateMs, display, sess.RequestFrame)
	sess.Attach(fb)

	if err := fb.Start(); err != nil {
		return err
	}

	return sess.Run(ctx)
}

// cliDisplay renders each delivered frame as a compact ASCII grid on
// stdout and, if configured, a PNG snapshot alongside it.
type cliDisplay struct {
	snapshotDir string
	frame       int
}

func (d *cliDisplay) Show(g *cell.Grid) {
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			fmt.Print(glyph(g.At(x, y)))
		}
		fmt.Println()
	}

	if d.snapshotDir != "" {
		name := fmt.Sprintf("frame-%06d.png", d.frame)
		if err := imageadapter.WriteSnapshot(d.snapshotDir, name, g); err != nil {
			slog.Error("snapshot failed", "error", err)
		}
	}
	d.frame++
}

func glyph(c cell.Cell) string {
	switch c {
	case cell.Wire:
		return "."
	case cell.Head:
		return "H"
	case cell.Tail:
		return "t"
	default:
		return " "
	}
}

func printStartupSummary(opts options, width, height int) {
	t := table.NewWriter()
	t.SetTitle("wireworld-client")
	t.AppendHeader(table.Row{"Setting", "Value"})
	t.AppendRow(table.Row{"Server", fmt.Sprintf("%s:%d", opts.host, opts.port)})
	t.AppendRow(table.Row{"Map", opts.mapPath})
	t.AppendRow(table.Row{"Grid size", fmt.Sprintf("%dx%d", width, height)})
	t.AppendRow(table.Row{"Cell size", opts.cellSize})
	t.AppendRow(table.Row{"Update rate (ms)", opts.updateRateMs})
	t.AppendRow(table.Row{"Sampling", opts.sampling})
	if opts.snapshotDir == "" {
		t.AppendRow(table.Row{"Snapshots", "disabled"})
	} else {
		t.AppendRow(table.Row{"Snapshots", opts.snapshotDir})
	}
	fmt.Println(t.Render())
}
