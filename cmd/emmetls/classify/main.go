package classify

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/emmetls/pkg/activation"
	"github.com/walteh/emmetls/pkg/syntax"
)

type Handler struct {
	syntax string
	offset int
	pretty bool

	fs  afero.Fs
	out io.Writer
}

// Result is what classify prints. Parent and Property are only set for
// markup and stylesheet activations respectively.
type Result struct {
	Allowed  bool   `json:"allowed"`
	Type     string `json:"type,omitempty"`
	Syntax   string `json:"syntax,omitempty"`
	Inline   bool   `json:"inline,omitempty"`
	Parent   string `json:"parent,omitempty"`
	Property string `json:"property,omitempty"`
}

func NewClassifyCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "classify [file]",
		Short: "report whether an abbreviation may start at a byte offset of a file",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().StringVar(&me.syntax, "syntax", "", "dialect of the file, guessed from the extension when empty")
	cmd.Flags().IntVar(&me.offset, "offset", 0, "byte offset into the file")
	cmd.Flags().BoolVar(&me.pretty, "pretty", false, "pretty-print the result")
	cmd.MarkFlagRequired("offset")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context(), args[0])
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, path string) error {
	name := me.syntax
	if name == "" {
		d, ok := syntax.FromLanguageID(strings.TrimPrefix(filepath.Ext(path), "."))
		if !ok {
			return errors.Errorf("cannot guess the syntax of %s, pass --syntax", path)
		}
		name = d.Name
	}
	if _, ok := syntax.Lookup(name); !ok {
		return errors.Errorf("unknown syntax %q", name)
	}

	content, err := afero.ReadFile(me.fs, path)
	if err != nil {
		return errors.Errorf("reading %s: %w", path, err)
	}
	if me.offset < 0 || me.offset > len(content) {
		return errors.Errorf("offset %d is outside %s (%d bytes)", me.offset, path, len(content))
	}

	res := Result{}
	if opts, ok := activation.ClassifyText(ctx, string(content), me.offset, name); ok {
		res = Result{
			Allowed: true,
			Type:    string(opts.Type),
			Syntax:  opts.Syntax,
			Inline:  opts.Inline,
		}
		switch c := opts.Context.(type) {
		case activation.MarkupContext:
			res.Parent = c.Name
		case activation.StylesheetContext:
			res.Property = c.Name
		}
	}

	if me.pretty {
		printer := pp.New()
		printer.SetOutput(me.out)
		printer.SetColoringEnabled(false)
		if _, err := printer.Println(res); err != nil {
			return errors.Errorf("printing result: %w", err)
		}
		return nil
	}

	enc := json.NewEncoder(me.out)
	if err := enc.Encode(res); err != nil {
		return errors.Errorf("encoding result: %w", err)
	}
	return nil
}
