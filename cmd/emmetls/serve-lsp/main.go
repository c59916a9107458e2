package serve_lsp

import (
	"context"
	"os"

	"github.com/creachadair/jrpc2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/emmetls/pkg/debug"
	"github.com/walteh/emmetls/pkg/lsp"
	"github.com/walteh/emmetls/pkg/lsp/protocol"
)

type Handler struct {
	debug      bool
	configPath string
	version    string
}

func NewServeLSPCommand(version string) *cobra.Command {
	me := &Handler{version: version}

	cmd := &cobra.Command{
		Use:   "serve-lsp",
		Short: "start the language server on stdin/stdout",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().BoolVar(&me.debug, "debug", false, "enable debug logging")
	cmd.Flags().StringVar(&me.configPath, "config", "", "config file, instead of the one found in the workspace root")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context())
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context) error {
	level := zerolog.InfoLevel
	if me.debug {
		level = zerolog.TraceLevel
	}
	// stdout carries the protocol
	logger := debug.NewLogger(os.Stderr, debug.Options{Level: level}).With().Str("component", "emmetls").Logger()
	ctx = logger.WithContext(ctx)

	opts := []lsp.Option{
		lsp.WithFs(afero.NewOsFs()),
		lsp.WithVersion(me.version),
	}
	if me.configPath != "" {
		opts = append(opts, lsp.WithConfigPath(me.configPath))
	}
	server := lsp.NewServer(ctx, opts...)

	rpcOpts := &jrpc2.ServerOptions{}
	if me.debug {
		rpcOpts.RPCLog = protocol.RPCLogger{}
	}

	if err := server.Serve(ctx, os.Stdin, os.Stdout, rpcOpts); err != nil {
		return errors.Errorf("serving lsp: %w", err)
	}
	return nil
}
