package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Unreachable(t *testing.T) {
	c := New("127.0.0.1:1", "", 0, time.Minute)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.Error(t, c.Ping(ctx))

	var v map[string]string
	err := c.GetJSON(ctx, "session:1:1", &v)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestClient_SetJSON_MarshalError(t *testing.T) {
	c := New("127.0.0.1:1", "", 0, time.Minute)
	defer c.Close()

	err := c.SetJSON(context.Background(), "k", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal k")
}
