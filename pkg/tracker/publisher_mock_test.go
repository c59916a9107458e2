package tracker_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/walteh/emmetls/pkg/textdoc"
	"github.com/walteh/emmetls/pkg/tracker"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, id textdoc.ID, rng tracker.Range, outcome tracker.Outcome) {
	m.Called(ctx, id, rng, outcome)
}

func (m *MockPublisher) Clear(ctx context.Context, id textdoc.ID) {
	m.Called(ctx, id)
}
