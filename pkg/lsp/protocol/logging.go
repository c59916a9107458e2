package protocol

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/walteh/emmetls/pkg/debug"
)

// myLoggerId tags events logged by this process so the client can tell them
// apart from forwarded dependency output.
var myLoggerId = xid.New().String()

// ApplyClientToZerolog replaces the logger in ctx with one that writes to
// the client. The level of the original logger is kept.
func ApplyClientToZerolog(ctx context.Context, client Client) context.Context {
	writer := &logWriter{
		client: client,
		ctx:    ctx,
	}

	level := zerolog.Ctx(ctx).GetLevel()

	return zerolog.New(writer).With().
		Str("id", myLoggerId).
		Str("lsp_role", "server").
		Logger().
		Level(level).
		Hook(debug.TimeHook{}).
		Hook(debug.CallerHook{}).
		WithContext(ctx)
}

func ApplyRequestToZerolog(ctx context.Context, req *jrpc2.Request) context.Context {
	return zerolog.Ctx(ctx).With().
		Str("rpc_method", req.Method()).
		Str("rpc_id", req.ID()).
		Logger().
		WithContext(ctx)
}

type logWriter struct {
	client Client
	mu     sync.Mutex
	ctx    context.Context
}

// Write turns one JSON encoded zerolog event into a window/logMessage
// notification.
func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var entry map[string]any
	if err := json.Unmarshal(p, &entry); err != nil {
		return len(p), nil
	}

	id := extractField(entry, "id", "")
	params := &LogMessageParams{
		Type:         MessageTypeFromZerolog(extractField(entry, "level", "info")),
		Message:      extractField(entry, "message", ""),
		Time:         extractField(entry, "time", ""),
		Source:       extractField(entry, "caller", ""),
		IsDependency: id != myLoggerId,
		Extra:        entry,
	}

	// a disconnected client must not turn logging into an error path
	_ = w.client.LogMessage(w.ctx, params)
	return len(p), nil
}

// extractField removes key from entry and returns its string value.
func extractField(entry map[string]any, key, defaultValue string) string {
	if v, ok := entry[key].(string); ok {
		delete(entry, key)
		return v
	}
	return defaultValue
}

func MessageTypeFromZerolog(level string) MessageType {
	switch level {
	case "error", "fatal", "panic":
		return Error
	case "warn":
		return Warning
	case "info":
		return Info
	case "debug":
		return Debug
	default:
		return Log
	}
}

// RPCLogger logs every request and response at trace level.
type RPCLogger struct{}

var _ jrpc2.RPCLogger = RPCLogger{}

func (RPCLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	zerolog.Ctx(ctx).Trace().
		Str("rpc_params", req.ParamString()).
		Str("rpc_id", req.ID()).
		Str("rpc_method", req.Method()).
		Msg("client request")
}

func (RPCLogger) LogResponse(ctx context.Context, res *jrpc2.Response) {
	zerolog.Ctx(ctx).Trace().
		Str("rpc_result", res.ResultString()).
		Str("rpc_id", res.ID()).
		Msg("server response")
}
