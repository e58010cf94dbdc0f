package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/outline-cli/internal/outline"
	"github.com/salmonumbrella/outline-cli/internal/server"
)

// DefaultListenAddr is used when neither --addr nor listen_addr is set.
const DefaultListenAddr = "127.0.0.1:8080"

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve <doc>",
	Short: "Serve a document over HTTP for an editing surface",
	Long: `Load a document and serve it over HTTP until interrupted.

  GET  /health
  GET  /api/blocks[?visible=true]
  GET  /api/blocks/{key}/visible
  GET  /api/tree
  GET  /api/parents
  POST /api/edits        body: one intent, e.g. {"op":"indent","start":"b"}

Edits are applied one at a time. With --write every accepted edit is saved
back to the document file before it becomes visible.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openDocument(cmd, args[0])
		if err != nil {
			return err
		}
		addr := resolveListenAddr(cmd)

		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		log := slog.New(slog.NewJSONHandler(stderrFromContext(cmd.Context()), &slog.HandlerOptions{Level: level}))

		opts := []server.Option{server.WithLogger(log)}
		if write, _ := cmd.Flags().GetBool("write"); write {
			if s.path == "-" {
				return fmt.Errorf("--write needs a document path, not stdin")
			}
			opts = append(opts, server.WithPersist(func(d *outline.Document) error {
				return s.save(d)
			}))
		}
		srv := server.New(s.doc, opts...)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx, addr)
	},
}

func resolveListenAddr(cmd *cobra.Command) string {
	if flagChanged(cmd, "addr") {
		return serveAddr
	}
	if cfg != nil && strings.TrimSpace(cfg.ListenAddr) != "" {
		return strings.TrimSpace(cfg.ListenAddr)
	}
	return DefaultListenAddr
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", DefaultListenAddr, "Listen address")
	addWriteFlag(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

