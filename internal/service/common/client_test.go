//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"

	api "github.com/oshokin/alarm-scheduler/internal/api/grpc/alarm"
)

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestClient_ArgumentChecks rejects missing arguments before any network call.
func TestClient_ArgumentChecks(t *testing.T) {
	t.Parallel()

	c := new(Client)

	require.ErrorIs(t, c.CreateAlarm(context.Background(), "a", nil), errInfoRequired)
	require.ErrorIs(t, c.WatchAlarms(context.Background(), nil), errHandlerRequired)
	require.NoError(t, c.Close())
	require.NoError(t, (*Client)(nil).Close())
}

// TestWithCallTimeout ignores non-positive values.
func TestWithCallTimeout(t *testing.T) {
	t.Parallel()

	c := NewClient(nil, WithCallTimeout(-time.Second))
	require.Positive(t, c.callTimeout)

	c = NewClient(nil, WithCallTimeout(time.Second))
	require.Equal(t, time.Second, c.callTimeout)
}

// TestClient_withActor attaches the actor to outgoing metadata only when set.
func TestClient_withActor(t *testing.T) {
	t.Parallel()

	c := NewClient(nil)
	_, ok := metadata.FromOutgoingContext(c.withActor(context.Background()))
	require.False(t, ok)

	c = NewClient(nil, WithActor("o.shokin@host"))
	md, ok := metadata.FromOutgoingContext(c.withActor(context.Background()))
	require.True(t, ok)
	require.Equal(t, []string{"o.shokin@host"}, md.Get(api.ActorMetadataKey))
}
