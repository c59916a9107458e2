package protocol_test

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/walteh/emmetls/pkg/lsp/protocol"
)

type harness struct {
	server  *jrpc2.Server
	client  *jrpc2.Client
	push    protocol.Client
	tracker *protocol.RPCTracker
}

func newHarness(t *testing.T, ctx context.Context, srv protocol.Server) *harness {
	t.Helper()

	server, push := protocol.NewServer(ctx, srv, &jrpc2.ServerOptions{Concurrency: 1})
	tracker := protocol.NewRPCTracker()
	client := tracker.Connect(server)

	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})

	return &harness{server: server, client: client, push: push, tracker: tracker}
}

func TestInitializationHandshake(t *testing.T) {
	ctx := context.Background()
	srv := &MockServer{}

	srv.On("Initialize", mock.Anything, mock.MatchedBy(func(p *protocol.ParamInitialize) bool {
		return p.RootURI == "file:///workspace" && p.ProcessID == 1
	})).Return(&protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{OpenClose: true, Change: protocol.SyncIncremental},
		},
	}, nil).Once()
	srv.On("Initialized", mock.Anything, mock.Anything).Return(nil).Once()
	srv.On("Shutdown", mock.Anything).Return(nil).Once()

	h := newHarness(t, ctx, srv)

	var result protocol.InitializeResult
	err := h.client.CallResult(ctx, protocol.MethodInitialize, &protocol.ParamInitialize{
		ProcessID: 1,
		RootURI:   "file:///workspace",
	}, &result)
	require.NoError(t, err)
	assert.Equal(t, protocol.SyncIncremental, result.Capabilities.TextDocumentSync.Change)

	require.NoError(t, h.client.Notify(ctx, protocol.MethodInitialized, &protocol.InitializedParams{}))

	_, err = h.client.Call(ctx, protocol.MethodShutdown, nil)
	require.NoError(t, err)

	srv.AssertExpectations(t)
}

func TestNotificationsDispatch(t *testing.T) {
	ctx := context.Background()
	srv := &MockServer{}

	srv.On("DidOpen", mock.Anything, mock.MatchedBy(func(p *protocol.DidOpenTextDocumentParams) bool {
		return p.TextDocument.LanguageID == "html" && p.TextDocument.Text == "<p>"
	})).Return(nil).Once()
	srv.On("CaretChanged", mock.Anything, mock.MatchedBy(func(p *protocol.CaretChangedParams) bool {
		return p.Position == protocol.Position{Line: 0, Character: 3}
	})).Return(nil).Once()
	srv.On("Completion", mock.Anything, mock.Anything).Return(&protocol.CompletionList{}, nil).Once()

	h := newHarness(t, ctx, srv)

	require.NoError(t, h.client.Notify(ctx, protocol.MethodDidOpen, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///a.html", LanguageID: "html", Text: "<p>"},
	}))
	require.NoError(t, h.client.Notify(ctx, protocol.MethodCaretChanged, &protocol.CaretChangedParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///a.html"},
		Position:     protocol.Position{Line: 0, Character: 3},
	}))
	// the call is only dispatched after the preceding notifications are done
	var list protocol.CompletionList
	require.NoError(t, h.client.CallResult(ctx, protocol.MethodCompletion, &protocol.CompletionParams{}, &list))

	srv.AssertExpectations(t)
}

func TestMalformedParams(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, ctx, &MockServer{})

	_, err := h.client.Call(ctx, protocol.MethodCompletion, map[string]any{"position": "nowhere"})
	require.Error(t, err)

	var rpcErr *jrpc2.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.EqualValues(t, -32700, rpcErr.Code)
}

func TestServerPush(t *testing.T) {
	ctx := context.Background()
	srv := &MockServer{}
	h := newHarness(t, ctx, srv)

	h.tracker.OnCallback = func(_ context.Context, method string, params json.RawMessage) (any, error) {
		return &protocol.ApplyWorkspaceEditResult{Applied: true}, nil
	}

	srv.On("ExecuteCommand", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		res, err := h.push.ApplyEdit(ctx, &protocol.ApplyWorkspaceEditParams{Label: "test"})
		require.NoError(t, err)
		assert.True(t, res.Applied)
		require.NoError(t, h.push.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{URI: "file:///a.html"}))
	}).Return(nil, nil).Once()

	_, err := h.client.Call(ctx, protocol.MethodExecuteCommand, &protocol.ExecuteCommandParams{Command: "x"})
	require.NoError(t, err)

	_, ok := h.tracker.WaitFor(protocol.MethodPublishDiagnostics, time.Second, nil)
	assert.True(t, ok)
	assert.Len(t, h.tracker.Messages(protocol.MethodApplyEdit), 1)
}

func TestLogsAreForwardedToClient(t *testing.T) {
	logger := zerolog.New(io.Discard).Level(zerolog.DebugLevel)
	ctx := logger.WithContext(context.Background())

	srv := &MockServer{}
	srv.On("Shutdown", mock.Anything).Run(func(args mock.Arguments) {
		zerolog.Ctx(args.Get(0).(context.Context)).Warn().Str("extra", "field").Msg("shutting down")
	}).Return(nil).Once()

	h := newHarness(t, ctx, srv)

	_, err := h.client.Call(ctx, protocol.MethodShutdown, nil)
	require.NoError(t, err)

	msg, ok := h.tracker.WaitFor(protocol.MethodLogMessage, time.Second, nil)
	require.True(t, ok)

	var params protocol.LogMessageParams
	require.NoError(t, json.Unmarshal(msg.Params, &params))
	assert.Equal(t, protocol.Warning, params.Type)
	assert.Equal(t, "shutting down", params.Message)
	assert.False(t, params.IsDependency)
	assert.Contains(t, params.Source, "protocol_test.go")
	assert.Equal(t, "field", params.Extra["extra"])
	assert.Equal(t, protocol.MethodShutdown, params.Extra["rpc_method"])
}

func TestMessageTypeFromZerolog(t *testing.T) {
	tests := []struct {
		level string
		want  protocol.MessageType
	}{
		{level: "error", want: protocol.Error},
		{level: "warn", want: protocol.Warning},
		{level: "info", want: protocol.Info},
		{level: "debug", want: protocol.Debug},
		{level: "trace", want: protocol.Log},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, protocol.MessageTypeFromZerolog(tt.level))
		})
	}
}

func TestDocumentURIPath(t *testing.T) {
	tests := []struct {
		name string
		uri  protocol.DocumentURI
		want string
	}{
		{name: "file uri", uri: "file:///tmp/a.html", want: "/tmp/a.html"},
		{name: "escaped", uri: "file:///tmp/my%20dir/a.html", want: "/tmp/my dir/a.html"},
		{name: "not a file", uri: "untitled:Untitled-1", want: "untitled:Untitled-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.uri.Path())
		})
	}

	assert.Equal(t, protocol.DocumentURI("file:///tmp/a.html"), protocol.URIFromPath("/tmp/a.html"))
}
