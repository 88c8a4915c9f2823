package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStartSweeper(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Save(context.Background(), Key{ChatID: 1, UserID: 1}, &Session{State: "a"}))

	s, err := StartSweeper(m, time.Millisecond, 20*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	require.Eventually(t, func() bool { return m.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
