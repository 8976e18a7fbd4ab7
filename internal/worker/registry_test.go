package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_CancelRunningJob(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	r.register("job-1", cancel)

	require.False(t, r.Cancel("other"), "unknown jobs are not cancelable")
	require.True(t, r.Cancel("job-1"))
	require.Error(t, ctx.Err(), "cancel propagates to the run context")
	require.True(t, r.wasCanceled("job-1"))

	r.unregister("job-1")
	require.False(t, r.Cancel("job-1"), "finished jobs are gone")
}
