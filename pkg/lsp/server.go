// Package lsp serves abbreviation tracking, completion and expansion to
// editors over the Language Server Protocol.
package lsp

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/walteh/emmetls/pkg/activation"
	"github.com/walteh/emmetls/pkg/completion"
	"github.com/walteh/emmetls/pkg/config"
	"github.com/walteh/emmetls/pkg/lsp/protocol"
	"github.com/walteh/emmetls/pkg/policy"
	"github.com/walteh/emmetls/pkg/syntax"
	"github.com/walteh/emmetls/pkg/textdoc"
	"github.com/walteh/emmetls/pkg/tracker"
)

const (
	CommandExpandAbbreviation = "emmet.expandAbbreviation"
	CommandStartTracking      = "emmet.startTracking"
	CommandStopTracking       = "emmet.stopTracking"
)

var errShuttingDown = &jrpc2.Error{Code: -32600, Message: "server is shutting down"}

// Server represents an LSP server instance
type Server struct {
	id      string
	version string
	// ctx is the server lifetime context, used by background work such as
	// config reloads
	ctx context.Context

	fs         afero.Fs
	configPath string

	documents *DocumentManager
	store     *tracker.Store
	policy    *policy.Policy
	provider  *completion.Provider

	mu          sync.RWMutex
	cfg         *config.Config
	loader      *config.Loader
	root        string
	initOptions json.RawMessage

	client   protocol.Client
	shutdown atomic.Bool
}

var _ protocol.Server = (*Server)(nil)

type Option func(*Server)

// WithFs sets the filesystem config files and .editorconfig are read from.
func WithFs(fs afero.Fs) Option {
	return func(s *Server) { s.fs = fs }
}

// WithConfigPath pins the config file instead of looking it up in the
// workspace root.
func WithConfigPath(path string) Option {
	return func(s *Server) { s.configPath = path }
}

func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

func NewServer(ctx context.Context, opts ...Option) *Server {
	s := &Server{
		id:        xid.New().String(),
		ctx:       ctx,
		fs:        afero.NewOsFs(),
		documents: NewDocumentManager(),
		cfg:       config.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.store = tracker.NewStore(tracker.WithPublisher(&diagnosticPublisher{server: s}))
	s.policy = policy.New(s.store)
	s.provider = completion.NewProvider(s.policy)
	s.applyConfig(s.cfg)

	return s
}

func (s *Server) Documents() *DocumentManager {
	return s.documents
}

// BuildServerInstance wires the server into a jrpc2 server. Pushes to the
// client go through that instance.
func (s *Server) BuildServerInstance(ctx context.Context, opts *jrpc2.ServerOptions) *jrpc2.Server {
	if opts == nil {
		opts = &jrpc2.ServerOptions{}
	}
	// document callbacks must be serialized
	opts.Concurrency = 1

	srv, client := protocol.NewServer(ctx, s, opts)
	s.client = client
	return srv
}

// Serve speaks LSP over r and w until the client exits or the stream ends.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.WriteCloser, opts *jrpc2.ServerOptions) error {
	srv := s.BuildServerInstance(ctx, opts)
	srv.Start(channel.LSP(r, w))

	zerolog.Ctx(ctx).Info().Str("server_id", s.id).Msg("language server started")

	var err error
	if werr := srv.Wait(); werr != nil {
		err = errors.Errorf("running language server: %w", werr)
	}
	return multierr.Append(err, s.Close())
}

// Close releases the config watcher.
func (s *Server) Close() error {
	s.mu.RLock()
	loader := s.loader
	s.mu.RUnlock()
	if loader == nil {
		return nil
	}
	if err := loader.Close(); err != nil {
		return errors.Errorf("closing config loader: %w", err)
	}
	return nil
}

func (s *Server) config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// applyConfig makes base, overlaid with the initialization options, the
// effective config.
func (s *Server) applyConfig(base *config.Config) {
	s.mu.RLock()
	raw := s.initOptions
	s.mu.RUnlock()

	cfg, err := config.FromInitializationOptions(base, raw)
	if err != nil {
		zerolog.Ctx(s.ctx).Warn().Err(err).Msg("ignoring initialization options")
		cfg = base
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	s.policy.SetJSXPrefix(cfg.JSXPrefix)
	s.provider.SetPreview(cfg.ShowPreview)
	s.store.SetConfig(cfg.Abbreviation(""))
}

// tracks reports whether typing in doc may start trackers.
func (s *Server) tracks(doc *Document) bool {
	cfg := s.config()
	if doc.Dialect == "" || !cfg.Enabled(doc.Dialect) {
		return false
	}
	path := doc.URI.Path()
	if cfg.Excluded(path) {
		return false
	}
	if s.root != "" {
		if rel, err := filepath.Rel(s.root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return !cfg.Excluded(filepath.ToSlash(rel))
		}
	}
	return true
}

// prepare points the expander defaults at doc's indentation before any
// tracker of doc is started or expanded.
func (s *Server) prepare(doc *Document) {
	s.store.SetConfig(s.config().Abbreviation(doc.Indent))
}

func (s *Server) Initialize(ctx context.Context, params *protocol.ParamInitialize) (*protocol.InitializeResult, error) {
	logger := zerolog.Ctx(ctx)

	root := ""
	if params.RootURI != "" {
		root = params.RootURI.Path()
	}

	path := s.configPath
	if path == "" && root != "" {
		if found, ok := config.Find(s.fs, root); ok {
			path = found
		}
	}

	loader := config.NewLoader(s.fs, path)
	s.mu.Lock()
	s.root = root
	s.loader = loader
	s.initOptions = params.InitializationOptions
	s.mu.Unlock()

	loader.OnChange(s.applyConfig)
	if _, err := loader.Load(); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("using default config")
	}
	s.applyConfig(loader.Config())

	logger.Debug().Str("root", root).Str("config", path).Msg("server initialized")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.SyncIncremental,
			},
			CompletionProvider: &protocol.CompletionOptions{},
			ExecuteCommandProvider: &protocol.ExecuteCommandOptions{
				Commands: []string{CommandExpandAbbreviation, CommandStartTracking, CommandStopTracking},
			},
		},
		ServerInfo: &protocol.ServerInfo{Name: "emmetls", Version: s.version},
	}, nil
}

func (s *Server) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	s.mu.RLock()
	loader := s.loader
	s.mu.RUnlock()

	if loader == nil || loader.Path() == "" {
		return nil
	}
	if err := loader.Watch(s.ctx); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("config changes will not be picked up")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown.Store(true)
	s.documents.Range(func(doc *Document) bool {
		s.policy.HandleClose(ctx, doc.ID())
		return true
	})
	return s.Close()
}

func (s *Server) Exit(ctx context.Context) error {
	if srv := jrpc2.ServerFromContext(ctx); srv != nil {
		// Stop waits for this handler to return
		go srv.Stop()
	}
	return nil
}

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	item := params.TextDocument
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("uri", string(item.URI)).Str("language", item.LanguageID).Msg("document opened")

	doc := &Document{
		Buffer: textdoc.NewBuffer(textdoc.ID(item.URI), item.Text),
		URI:    item.URI,
		Indent: config.IndentFor(s.fs, item.URI.Path()),
	}
	doc.LanguageID = item.LanguageID
	doc.Version = item.Version
	if d, ok := syntax.FromLanguageID(item.LanguageID); ok {
		doc.Dialect = d.Name
	}
	s.documents.Store(doc)

	if n := s.store.Sweep(ctx, s.documents.Live); n > 0 {
		logger.Debug().Int("removed", n).Msg("dropped trackers of closed documents")
	}
	return nil
}

func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return errors.Errorf("document not open: %s", params.TextDocument.URI)
	}
	doc.Version = params.TextDocument.Version
	s.prepare(doc)

	changes := params.ContentChanges
	if len(changes) == 1 && changes[0].Range != nil {
		change := changes[0]
		// clients do not report the caret with an edit; it was at the end
		// of the replaced span
		s.policy.HandleSelection(ctx, doc.ID(), doc.Offset(change.Range.End))

		start, _, _, err := doc.Apply(change)
		if err != nil {
			return err
		}
		doc.SetCaret(start + len(change.Text))

		if s.tracks(doc) {
			s.policy.HandleChange(ctx, doc, doc.Dialect)
		} else {
			s.store.OnDocumentChange(ctx, doc)
		}
		return nil
	}

	// multi-cursor edits and full syncs cannot be followed
	if err := s.store.Stop(ctx, doc, true); err != nil {
		return errors.Errorf("stopping tracker: %w", err)
	}
	caret := -1
	for _, change := range changes {
		start, _, ok, err := doc.Apply(change)
		if err != nil {
			return err
		}
		if ok {
			caret = start + len(change.Text)
		}
	}
	if caret >= 0 {
		doc.SetCaret(caret)
		s.policy.HandleSelection(ctx, doc.ID(), caret)
	}
	return nil
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	zerolog.Ctx(ctx).Debug().Str("uri", string(params.TextDocument.URI)).Msg("document closed")

	s.policy.HandleClose(ctx, textdoc.ID(params.TextDocument.URI))
	s.documents.Delete(params.TextDocument.URI)
	return nil
}

func (s *Server) CaretChanged(ctx context.Context, params *protocol.CaretChangedParams) error {
	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return errors.Errorf("document not open: %s", params.TextDocument.URI)
	}
	caret := doc.Offset(params.Position)
	doc.SetCaret(caret)
	s.policy.HandleSelection(ctx, doc.ID(), caret)
	return nil
}

func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	if s.shutdown.Load() {
		return nil, errShuttingDown
	}
	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, errors.Errorf("document not open: %s", params.TextDocument.URI)
	}

	caret := doc.Offset(params.Position)
	doc.SetCaret(caret)
	s.policy.HandleSelection(ctx, doc.ID(), caret)

	_, tracking := s.store.Get(doc.ID())
	list := &protocol.CompletionList{
		// the client must ask again while the abbreviation grows
		IsIncomplete: tracking,
		Items:        []protocol.CompletionItem{},
	}

	for _, item := range s.provider.Provide(ctx, doc, caret) {
		ci := protocol.CompletionItem{
			Label:            item.Label,
			Kind:             protocol.SnippetCompletion,
			Detail:           "Emmet abbreviation",
			FilterText:       item.Label,
			InsertTextFormat: protocol.SnippetTextFormat,
			TextEdit: &protocol.TextEdit{
				Range:   doc.Range(item.Range.Start, item.Range.End),
				NewText: item.InsertText,
			},
		}
		if item.Documentation != "" {
			ci.Documentation = &protocol.MarkupContent{Kind: protocol.PlainText, Value: item.Documentation}
		}
		list.Items = append(list.Items, ci)
	}
	return list, nil
}

func (s *Server) ExecuteCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (any, error) {
	if s.shutdown.Load() {
		return nil, errShuttingDown
	}
	zerolog.Ctx(ctx).Debug().Str("command", params.Command).Msg("executing command")

	switch params.Command {
	case CommandExpandAbbreviation:
		return nil, s.expandAbbreviation(ctx, params.Arguments)
	case CommandStartTracking:
		return nil, s.startTracking(ctx, params.Arguments)
	case CommandStopTracking:
		return nil, s.stopTracking(ctx, params.Arguments)
	}
	return nil, &jrpc2.Error{Code: -32601, Message: "unknown command " + params.Command}
}

// commandTarget decodes the `[uri, line, character]` arguments shared by
// the commands.
func (s *Server) commandTarget(args []json.RawMessage) (*Document, int, error) {
	if len(args) != 3 {
		return nil, 0, &jrpc2.Error{Code: -32602, Message: "expected arguments [uri, line, character]"}
	}
	var (
		uri protocol.DocumentURI
		pos protocol.Position
	)
	for i, dst := range []any{&uri, &pos.Line, &pos.Character} {
		if err := json.Unmarshal(args[i], dst); err != nil {
			return nil, 0, &jrpc2.Error{Code: -32602, Message: "decoding argument: " + err.Error()}
		}
	}
	doc, ok := s.documents.Get(uri)
	if !ok {
		return nil, 0, errors.Errorf("document not open: %s", uri)
	}
	return doc, doc.Offset(pos), nil
}

func (s *Server) expandAbbreviation(ctx context.Context, args []json.RawMessage) error {
	doc, caret, err := s.commandTarget(args)
	if err != nil {
		return err
	}
	s.prepare(doc)

	exp, err := s.provider.ExpandAtCaret(ctx, doc, doc.Dialect, caret)
	if err != nil {
		var eerr *completion.ExpandError
		if errors.As(err, &eerr) {
			s.showMessage(ctx, protocol.Error, eerr.Error())
			return nil
		}
		return errors.Errorf("expanding abbreviation: %w", err)
	}

	if s.client == nil {
		return errors.New("no client to apply the expansion")
	}
	res, err := s.client.ApplyEdit(ctx, &protocol.ApplyWorkspaceEditParams{
		Label: "Expand Emmet abbreviation",
		Edit: protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentURI][]protocol.TextEdit{
				doc.URI: {{Range: doc.Range(exp.Range.Start, exp.Range.End), NewText: exp.Text}},
			},
		},
	})
	if err != nil {
		return errors.Errorf("applying expansion: %w", err)
	}
	if !res.Applied {
		s.showMessage(ctx, protocol.Warning, "expansion was not applied: "+res.FailureReason)
	}
	return nil
}

func (s *Server) startTracking(ctx context.Context, args []json.RawMessage) error {
	doc, caret, err := s.commandTarget(args)
	if err != nil {
		return err
	}
	if doc.Dialect == "" {
		s.showMessage(ctx, protocol.Warning, "no abbreviation syntax for language "+doc.LanguageID)
		return nil
	}

	opts, ok := activation.Classify(ctx, doc, caret, doc.Dialect)
	if !ok {
		s.showMessage(ctx, protocol.Warning, "abbreviations are not allowed here")
		return nil
	}

	s.prepare(doc)
	doc.SetCaret(caret)
	if _, err := s.store.Start(ctx, doc, caret, caret, tracker.StartOptions{Options: opts, Forced: true}); err != nil {
		return errors.Errorf("starting tracker: %w", err)
	}
	s.policy.HandleSelection(ctx, doc.ID(), caret)
	return nil
}

// stopTracking cancels the document's tracker. The text of a forced tracker
// is removed on the client; the buffer follows through didChange.
func (s *Server) stopTracking(ctx context.Context, args []json.RawMessage) error {
	doc, _, err := s.commandTarget(args)
	if err != nil {
		return err
	}

	rec := &editRecorder{Document: doc}
	if err := s.store.Stop(ctx, rec, false); err != nil {
		return errors.Errorf("stopping tracker: %w", err)
	}
	if !rec.recorded {
		return nil
	}

	if s.client == nil {
		return errors.New("no client to remove the abbreviation")
	}
	res, err := s.client.ApplyEdit(ctx, &protocol.ApplyWorkspaceEditParams{
		Label: "Cancel Emmet abbreviation",
		Edit: protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentURI][]protocol.TextEdit{
				doc.URI: {{Range: doc.Range(rec.start, rec.end), NewText: rec.text}},
			},
		},
	})
	if err != nil {
		return errors.Errorf("removing abbreviation: %w", err)
	}
	if !res.Applied {
		s.showMessage(ctx, protocol.Warning, "abbreviation was not removed: "+res.FailureReason)
	}
	return nil
}

func (s *Server) showMessage(ctx context.Context, typ protocol.MessageType, msg string) {
	zerolog.Ctx(ctx).Debug().Str("message", msg).Msg("showing message")
	if s.client == nil {
		return
	}
	if err := s.client.ShowMessage(ctx, &protocol.ShowMessageParams{Type: typ, Message: msg}); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("showing message")
	}
}
