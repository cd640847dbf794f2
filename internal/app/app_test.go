package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/remarks/internal/core/comment"
	"github.com/colonyops/remarks/internal/core/config"
)

type stubAPI struct {
	list    []comment.Comment
	listErr error
}

func (s stubAPI) SandboxComments(context.Context, string) ([]comment.Comment, error) {
	return s.list, s.listErr
}

func (stubAPI) Comment(context.Context, string, string) (comment.Thread, error) {
	return comment.Thread{}, nil
}

func (stubAPI) CreateComment(context.Context, comment.CreateCommentInput) (comment.Comment, error) {
	return comment.Comment{}, nil
}

func (stubAPI) CreateCodeComment(context.Context, comment.CreateCodeCommentInput) (comment.Comment, error) {
	return comment.Comment{}, nil
}

func (stubAPI) UpdateComment(context.Context, comment.UpdateCommentInput) (comment.Comment, error) {
	return comment.Comment{}, nil
}

func (stubAPI) DeleteComment(context.Context, string, string) error {
	return nil
}

type recordClipboard struct{ text string }

func (c *recordClipboard) WriteText(_ context.Context, text string) error {
	c.text = text
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Workspace = t.TempDir()
	cfg.SandboxID = "sb-1"
	cfg.User = config.UserConfig{ID: "u-1", Name: "Ada"}
	return &cfg
}

func TestNew_LoadsComments(t *testing.T) {
	cfg := testConfig(t)
	api := stubAPI{list: []comment.Comment{{ID: "c1", Content: "hello"}}}

	a, err := New(context.Background(), cfg, Options{API: api, Clipboard: &recordClipboard{}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	a.Comments.LoadComments(context.Background())

	tree := a.Comments.State().Snapshot()
	assert.Equal(t, "sb-1", tree.SandboxID)
	require.NotNil(t, tree.User)
	assert.Equal(t, "u-1", tree.User.ID)
	_, ok := tree.Comments.Get("sb-1", "c1")
	assert.True(t, ok)
	assert.False(t, a.Errored())
}

func TestNew_ErrorNotificationsAreRecorded(t *testing.T) {
	cfg := testConfig(t)
	api := stubAPI{listErr: errors.New("offline")}

	a, err := New(context.Background(), cfg, Options{API: api, Clipboard: &recordClipboard{}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	a.Comments.LoadComments(context.Background())
	assert.True(t, a.Errored())

	history, err := a.Notify.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Unable to load comments, please try again", history[0].Message)
}

func TestNew_PermalinkUsesSandbox(t *testing.T) {
	cfg := testConfig(t)
	cfg.App.BaseURL = "https://remarks.test/"
	clip := &recordClipboard{}

	a, err := New(context.Background(), cfg, Options{API: stubAPI{}, Clipboard: clip})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	a.Comments.CopyPermalinkToClipboard(context.Background(), "c1")
	assert.Equal(t, "https://remarks.test/s/sb-1?comment=c1", clip.text)
}

func TestNew_InvalidWorkspace(t *testing.T) {
	cfg := testConfig(t)
	cfg.Workspace = filepath.Join(t.TempDir(), "missing")

	_, err := New(context.Background(), cfg, Options{API: stubAPI{}})
	require.Error(t, err)
}

func TestOpenDB_RecoversFromCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remarks.db")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("garbage!"), 128), 0o644))

	database, err := OpenDB(path)
	require.NoError(t, err)
	require.NoError(t, database.Close())

	backups, err := filepath.Glob(path + ".corrupt.*")
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}
