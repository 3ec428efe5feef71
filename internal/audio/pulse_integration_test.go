//go:build integration

package audio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordFromDefaultSourceIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	selection, err := SelectDevice(ctx, "default", "default")
	require.NoError(t, err)
	require.NotEmpty(t, Describe(selection.Device))

	capture, err := StartCapture(ctx, selection.Device)
	require.NoError(t, err)
	time.Sleep(300 * time.Millisecond)
	require.NoError(t, capture.Stop())
	require.NotEmpty(t, capture.PCM())
}
