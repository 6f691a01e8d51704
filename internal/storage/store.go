package storage

import (
	"context"

	"github.com/auditline/coverage/internal/types"
)

// Store persists canonical call rows so results can be rebuilt later
// against different office hours without re-ingesting the source file.
type Store interface {
	SaveCalls(ctx context.Context, calls []types.StoredCall) error
	GetCallsByDate(ctx context.Context, dateKey string) ([]types.StoredCall, error)
	GetAgentCallsByDate(ctx context.Context, agentName, dateKey string) ([]types.StoredCall, error)
	TruncateAll(ctx context.Context) error
}

// NoopStore is a no-op implementation when DynamoDB is disabled
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) SaveCalls(_ context.Context, _ []types.StoredCall) error { return nil }
func (s *NoopStore) GetCallsByDate(_ context.Context, _ string) ([]types.StoredCall, error) {
	return nil, nil
}
func (s *NoopStore) GetAgentCallsByDate(_ context.Context, _, _ string) ([]types.StoredCall, error) {
	return nil, nil
}
func (s *NoopStore) TruncateAll(_ context.Context) error { return nil }
