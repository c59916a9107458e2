package protocol_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/walteh/emmetls/pkg/lsp/protocol"
)

type MockServer struct {
	mock.Mock
}

var _ protocol.Server = (*MockServer)(nil)

func (m *MockServer) Initialize(ctx context.Context, params *protocol.ParamInitialize) (*protocol.InitializeResult, error) {
	args := m.Called(ctx, params)
	res, _ := args.Get(0).(*protocol.InitializeResult)
	return res, args.Error(1)
}

func (m *MockServer) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	return m.Called(ctx, params).Error(0)
}

func (m *MockServer) Shutdown(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockServer) Exit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockServer) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	return m.Called(ctx, params).Error(0)
}

func (m *MockServer) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	return m.Called(ctx, params).Error(0)
}

func (m *MockServer) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	return m.Called(ctx, params).Error(0)
}

func (m *MockServer) CaretChanged(ctx context.Context, params *protocol.CaretChangedParams) error {
	return m.Called(ctx, params).Error(0)
}

func (m *MockServer) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	args := m.Called(ctx, params)
	res, _ := args.Get(0).(*protocol.CompletionList)
	return res, args.Error(1)
}

func (m *MockServer) ExecuteCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (any, error) {
	args := m.Called(ctx, params)
	return args.Get(0), args.Error(1)
}
