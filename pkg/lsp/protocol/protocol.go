// Package protocol is the slice of the Language Server Protocol the emmet
// server speaks, dispatched over jrpc2.
package protocol

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
)

const (
	MethodInitialize         = "initialize"
	MethodInitialized        = "initialized"
	MethodShutdown           = "shutdown"
	MethodExit               = "exit"
	MethodDidOpen            = "textDocument/didOpen"
	MethodDidChange          = "textDocument/didChange"
	MethodDidClose           = "textDocument/didClose"
	MethodCompletion         = "textDocument/completion"
	MethodExecuteCommand     = "workspace/executeCommand"
	MethodCaretChanged       = "emmet/caretChanged"
	MethodCancelRequest      = "$/cancelRequest"
	MethodPublishDiagnostics = "textDocument/publishDiagnostics"
	MethodLogMessage         = "window/logMessage"
	MethodShowMessage        = "window/showMessage"
	MethodApplyEdit          = "workspace/applyEdit"
)

var RequestCancelledError = &jrpc2.Error{Code: -32800, Message: "JSON RPC cancelled"}

// Server is what the client calls.
type Server interface {
	Initialize(context.Context, *ParamInitialize) (*InitializeResult, error)
	Initialized(context.Context, *InitializedParams) error
	Shutdown(context.Context) error
	Exit(context.Context) error
	DidOpen(context.Context, *DidOpenTextDocumentParams) error
	DidChange(context.Context, *DidChangeTextDocumentParams) error
	DidClose(context.Context, *DidCloseTextDocumentParams) error
	CaretChanged(context.Context, *CaretChangedParams) error
	Completion(context.Context, *CompletionParams) (*CompletionList, error)
	ExecuteCommand(context.Context, *ExecuteCommandParams) (any, error)
}

// Client is what the server pushes back.
type Client interface {
	PublishDiagnostics(context.Context, *PublishDiagnosticsParams) error
	LogMessage(context.Context, *LogMessageParams) error
	ShowMessage(context.Context, *ShowMessageParams) error
	ApplyEdit(context.Context, *ApplyWorkspaceEditParams) (*ApplyWorkspaceEditResult, error)
}

func buildServerDispatchMap(server Server) handler.Map {
	return handler.Map{
		MethodInitialize:     createHandler(server.Initialize),
		MethodInitialized:    createEmptyResultHandler(server.Initialized),
		MethodShutdown:       createEmptyHandler(server.Shutdown),
		MethodExit:           createEmptyHandler(server.Exit),
		MethodDidOpen:        createEmptyResultHandler(server.DidOpen),
		MethodDidChange:      createEmptyResultHandler(server.DidChange),
		MethodDidClose:       createEmptyResultHandler(server.DidClose),
		MethodCaretChanged:   createEmptyResultHandler(server.CaretChanged),
		MethodCompletion:     createHandler(server.Completion),
		MethodExecuteCommand: createHandler(server.ExecuteCommand),
		// requests run one at a time, so there is never anything to cancel
		MethodCancelRequest: handler.New(func(context.Context, *jrpc2.Request) (any, error) {
			return nil, nil
		}),
	}
}

// NewServer wraps server in a jrpc2 server. Each request context carries a
// logger that forwards to the client through window/logMessage, based on
// the logger found in ctx.
func NewServer(ctx context.Context, server Server, opts *jrpc2.ServerOptions) (*jrpc2.Server, Client) {
	if opts == nil {
		opts = &jrpc2.ServerOptions{}
	}
	opts.AllowPush = true

	var caller *ServerCaller
	opts.NewContext = func() context.Context {
		if caller == nil {
			return ctx
		}
		return ApplyClientToZerolog(ctx, caller)
	}

	result := jrpc2.NewServer(buildServerDispatchMap(server), opts)
	caller = &ServerCaller{server: result}

	return result, caller
}

// ServerCaller implements Client with server-initiated notifications and
// callbacks.
type ServerCaller struct {
	server *jrpc2.Server
}

var _ Client = (*ServerCaller)(nil)

func (c *ServerCaller) PublishDiagnostics(ctx context.Context, params *PublishDiagnosticsParams) error {
	return createServerNotifyBack(ctx, c.server, MethodPublishDiagnostics, params)
}

func (c *ServerCaller) LogMessage(ctx context.Context, params *LogMessageParams) error {
	return createServerNotifyBack(ctx, c.server, MethodLogMessage, params)
}

func (c *ServerCaller) ShowMessage(ctx context.Context, params *ShowMessageParams) error {
	return createServerNotifyBack(ctx, c.server, MethodShowMessage, params)
}

func (c *ServerCaller) ApplyEdit(ctx context.Context, params *ApplyWorkspaceEditParams) (*ApplyWorkspaceEditResult, error) {
	var result ApplyWorkspaceEditResult
	if err := createServerCallBack(ctx, c.server, MethodApplyEdit, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func newParseError(err error) *jrpc2.Error {
	return &jrpc2.Error{
		Code:    -32700, // Parse error
		Message: err.Error(),
	}
}

func createHandler[T any, O any](method func(ctx context.Context, params *T) (O, error)) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (any, error) {
		if ctx.Err() != nil {
			return nil, RequestCancelledError
		}
		ctx = ApplyRequestToZerolog(ctx, r)
		var params T
		if r.HasParams() {
			if err := r.UnmarshalParams(&params); err != nil {
				return nil, newParseError(err)
			}
		}
		return method(ctx, &params)
	})
}

func createEmptyResultHandler[T any](method func(ctx context.Context, params *T) error) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (any, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		var params T
		if r.HasParams() {
			if err := r.UnmarshalParams(&params); err != nil {
				return nil, newParseError(err)
			}
		}
		return nil, method(ctx, &params)
	})
}

func createEmptyHandler(method func(ctx context.Context) error) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (any, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		return nil, method(ctx)
	})
}

func createServerCallBack[I any, O any](ctx context.Context, server *jrpc2.Server, method string, params *I, result *O) error {
	res, err := server.Callback(ctx, method, params)
	if err != nil {
		return err
	}
	if result != nil {
		return res.UnmarshalResult(result)
	}
	return nil
}

func createServerNotifyBack[I any](ctx context.Context, server *jrpc2.Server, method string, params *I) error {
	return server.Notify(ctx, method, params)
}
