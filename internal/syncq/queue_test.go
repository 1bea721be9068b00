package syncq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	orig := Dir
	Dir = func() (string, error) { return dir, nil }
	t.Cleanup(func() { Dir = orig })
}

func TestLoadEmpty(t *testing.T) {
	useTempDir(t)
	cmds, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cmds)
}

func TestPushReplacesSamePlayer(t *testing.T) {
	useTempDir(t)
	now := time.Now().UTC()
	require.NoError(t, Push(Command{ID: "1", SessionID: "s1", PlayerID: "a", Action: "work", QueuedAt: now}))
	require.NoError(t, Push(Command{ID: "2", SessionID: "s1", PlayerID: "b", Action: "rest", QueuedAt: now}))
	require.NoError(t, Push(Command{ID: "3", SessionID: "s1", PlayerID: "a", Action: "study", QueuedAt: now}))

	cmds, err := Load()
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, "b", cmds[0].PlayerID)
	assert.Equal(t, "study", cmds[1].Action)

	require.NoError(t, Save(nil))
	cmds, err = Load()
	require.NoError(t, err)
	assert.Empty(t, cmds)
}
