// Package main implements the mcpserver CLI, a thin front-end that starts
// the Streamable HTTP MCP server. Defaults require no configuration at
// all; MCPSERVER_* environment variables overlay them. Loading a config
// file from disk is out of scope per spec.md §1, so there is no
// --config flag.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fyrsmithlabs/mcp-go-server/internal/logging"
	"github.com/fyrsmithlabs/mcp-go-server/pkg/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	bindAddress string
	port        int
	fsRoot      string
	gitRoot     string
	version     = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "mcpserver",
	Short:   "Model Context Protocol server over Streamable HTTP",
	Version: version,
	RunE:    runServe,
}

func init() {
	rootCmd.Flags().StringVar(&bindAddress, "bind", "127.0.0.1", "address to bind the HTTP listener to")
	rootCmd.Flags().IntVar(&port, "port", 8080, "port to listen on")
	rootCmd.Flags().StringVar(&fsRoot, "fs-root", "", "directory the filesystem resource provider serves, if set")
	rootCmd.Flags().StringVar(&gitRoot, "git-root", "", "local git repository the git resource provider serves, if set")
}

func runServe(cmd *cobra.Command, args []string) error {
	log, err := logging.NewLogger(logging.NewDefaultConfig(), nil)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	cfg, err := mcp.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("bind") {
		cfg.HTTP.BindAddress = bindAddress
	}
	if cmd.Flags().Changed("port") {
		cfg.HTTP.Port = port
	}

	var opts []mcp.ServerOption
	if fsRoot != "" {
		opts = append(opts, mcp.WithFilesystemRoot(fsRoot))
	}
	if gitRoot != "" {
		opts = append(opts, mcp.WithGitRoot(gitRoot))
	}

	srv, err := mcp.NewServer(cfg, log, opts...)
	if err != nil {
		return fmt.Errorf("constructing server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info(ctx, "starting mcp server", zap.String("bind", bindAddress), zap.Int("port", port))
	return srv.Start(ctx)
}
