package expand

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/emmetls/pkg/abbreviation"
	"github.com/walteh/emmetls/pkg/config"
	"github.com/walteh/emmetls/pkg/syntax"
)

type Handler struct {
	syntax     string
	configPath string
	snippet    bool

	fs  afero.Fs
	out io.Writer
}

func NewExpandCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "expand [abbreviation]",
		Short: "expand an abbreviation and print the result",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().StringVar(&me.syntax, "syntax", "html", "dialect of the abbreviation")
	cmd.Flags().StringVar(&me.configPath, "config", "", "config file with snippets and output settings")
	cmd.Flags().BoolVar(&me.snippet, "snippet", false, "print LSP snippet tab stops instead of placeholders")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context(), args[0])
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, text string) error {
	d, ok := syntax.Lookup(me.syntax)
	if !ok {
		return errors.Errorf("unknown syntax %q", me.syntax)
	}

	cfg := config.Default()
	if me.configPath != "" {
		loaded, err := config.Load(me.fs, me.configPath)
		if err != nil {
			return errors.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	indent := ""
	if wd, err := os.Getwd(); err == nil {
		indent = config.IndentFor(me.fs, filepath.Join(wd, "abbreviation."+me.syntax))
	}

	acfg := cfg.Abbreviation(indent)
	acfg.Type = d.Type
	acfg.Syntax = d.Name
	if !me.snippet {
		acfg.Field = abbreviation.PlaceholderField
	}

	out, err := abbreviation.Expand(text, acfg)
	if err != nil {
		var perr *abbreviation.ParseError
		if errors.As(err, &perr) {
			return errors.Errorf("invalid abbreviation:\n%s\n%s^ %s", text, strings.Repeat(" ", perr.Offset), perr.Message)
		}
		return errors.Errorf("expanding %q: %w", text, err)
	}

	_, err = fmt.Fprintln(me.out, out)
	return err
}
