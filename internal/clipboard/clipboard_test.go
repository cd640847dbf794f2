package clipboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystem_WriteText(t *testing.T) {
	var got string
	s := &System{write: func(text string) error {
		got = text
		return nil
	}}

	require.NoError(t, s.WriteText(context.Background(), "https://example.test/s/1?comment=2"))
	assert.Equal(t, "https://example.test/s/1?comment=2", got)
}

func TestSystem_WriteTextError(t *testing.T) {
	boom := errors.New("xclip: not found")
	s := &System{write: func(string) error { return boom }}

	err := s.WriteText(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestSystem_Unsupported(t *testing.T) {
	s := &System{unsupported: true, write: func(string) error {
		t.Fatal("write must not be called")
		return nil
	}}

	assert.ErrorIs(t, s.WriteText(context.Background(), "x"), ErrUnsupported)
}

func TestSystem_Cancelled(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	s := &System{write: func(string) error {
		<-release
		return nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.WriteText(ctx, "x"), context.Canceled)
}
