package redis

import (
	"context"
	"testing"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	m.RequireAuth("s3cret")

	client, err := Connect(context.Background(), Config{Addr: m.Addr(), Password: "s3cret"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())

	_, err = Connect(context.Background(), Config{Addr: m.Addr(), Password: "wrong"})
	require.Error(t, err)
}

func TestConnect_Unreachable(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	addr := m.Addr()
	m.Close()

	_, err = Connect(context.Background(), Config{Addr: addr})
	require.Error(t, err)
}
