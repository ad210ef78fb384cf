package fsstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	type payload struct {
		Name string `json:"name"`
	}

	require.NoError(t, WriteJSON(path, payload{Name: "alpha"}))

	var out payload
	ok, err := ReadJSON(path, &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alpha", out.Name)
}

func TestReadJSONMissingAndBlank(t *testing.T) {
	dir := t.TempDir()
	var out map[string]any

	ok, err := ReadJSON(filepath.Join(dir, "missing.json"), &out)
	require.NoError(t, err)
	assert.False(t, ok)

	blank := filepath.Join(dir, "blank.json")
	require.NoError(t, os.WriteFile(blank, []byte("  \n"), 0o644))
	ok, err = ReadJSON(blank, &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadJSONMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var out map[string]any
	_, err := ReadJSON(path, &out)
	assert.ErrorIs(t, err, ErrDecodeFailed)
}

func TestReadWriteText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offset.txt")

	_, ok, err := ReadText(path)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, WriteText(path, "42\n"))
	got, ok, err := ReadText(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "42", got)
}

func TestEmptyPath(t *testing.T) {
	assert.ErrorIs(t, WriteText(" ", "x"), ErrInvalidPath)
}

func TestWithLockSerializes(t *testing.T) {
	dir := t.TempDir()
	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- WithLock(context.Background(), dir, func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := WithLock(ctx, dir, func() error { return nil })
	assert.ErrorIs(t, err, ErrLockTimeout)

	close(release)
	require.NoError(t, <-done)

	ran := false
	require.NoError(t, WithLock(context.Background(), dir, func() error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
}

func TestWithLockRecordsOwner(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	require.NoError(t, WithLock(context.Background(), dir, func() error {
		b, err := os.ReadFile(filepath.Join(dir, LockFileName))
		require.NoError(t, err)
		assert.Contains(t, string(b), "pid=")
		return nil
	}))

	err := WithLock(context.Background(), " ", func() error { return nil })
	assert.ErrorIs(t, err, ErrInvalidPath)
}
