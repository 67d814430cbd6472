package shared_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quizforge/qbank-api/internal/api/shared"
)

func TestTraceID(t *testing.T) {
	t.Parallel()

	ctx := shared.SetTraceID(context.Background())
	traceID := shared.GetTraceID(ctx)

	assert.Len(t, traceID, shared.TraceIDLength*2, "trace ID should be hex encoded")

	// A second context gets a distinct ID.
	other := shared.GetTraceID(shared.SetTraceID(context.Background()))
	assert.NotEqual(t, traceID, other)

	// Missing trace ID yields an empty string.
	assert.Equal(t, "", shared.GetTraceID(context.Background()))
}
