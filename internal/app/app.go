// Package app wires the comment service to its collaborators. Commands and
// the TUI consume App instead of cherry-picking raw dependencies.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/colonyops/remarks/internal/clipboard"
	"github.com/colonyops/remarks/internal/core/comment"
	"github.com/colonyops/remarks/internal/core/config"
	"github.com/colonyops/remarks/internal/core/eventbus"
	"github.com/colonyops/remarks/internal/core/logging"
	corenotify "github.com/colonyops/remarks/internal/core/notify"
	"github.com/colonyops/remarks/internal/data/db"
	"github.com/colonyops/remarks/internal/data/stores"
	"github.com/colonyops/remarks/internal/editor"
	"github.com/colonyops/remarks/internal/gql"
	"github.com/colonyops/remarks/internal/notify"
	"github.com/colonyops/remarks/internal/permalink"
	"github.com/colonyops/remarks/internal/remarks"
)

// notificationLimit is the number of notifications kept in history.
const notificationLimit = 500

// eventBuffer is the event bus queue size.
const eventBuffer = 64

// App is the central entry point for comment operations.
type App struct {
	Config    *config.Config
	Comments  *remarks.CommentService
	API       *gql.Client
	Workspace *editor.Workspace
	Notify    *notify.Bus
	Bus       *eventbus.EventBus
	DB        *db.DB
	Router    remarks.Router

	errored atomic.Bool
	cancel  context.CancelFunc
}

// Options overrides collaborators, mostly for tests.
type Options struct {
	// API replaces the GraphQL client.
	API remarks.API
	// Clipboard replaces the system clipboard.
	Clipboard remarks.Clipboard
}

// New builds an App from configuration. The event bus runs until Close.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	database, err := OpenDB(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	ws, err := editor.NewWorkspace(cfg.Workspace)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	var router remarks.Router = baseRouter(cfg.App.BaseURL)
	if cfg.SandboxID != "" {
		r, err := permalink.New(cfg.App.BaseURL, cfg.SandboxID)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("app.base_url: %w", err)
		}
		router = r
	}

	a := &App{
		Config:    cfg,
		Workspace: ws,
		DB:        database,
		Bus:       eventbus.New(eventBuffer),
		Router:    router,
	}

	a.Notify = notify.NewBus(stores.NewNotifyStore(database, notificationLimit), logging.Component("notify"))
	a.Notify.Subscribe(func(n corenotify.Notification) {
		if n.Level == corenotify.LevelError {
			a.errored.Store(true)
		}
	})

	api := opts.API
	if api == nil {
		a.API = gql.New(cfg.API.Endpoint,
			gql.WithToken(cfg.API.Token),
			gql.WithTimeout(cfg.API.Timeout),
			gql.WithLogger(logging.Component("gql")),
		)
		api = a.API
	}

	var clip remarks.Clipboard = opts.Clipboard
	if clip == nil {
		clip = clipboard.New()
	}

	busCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel
	eventbus.RegisterDebugLogger(a.Bus, logging.Component("events"))
	go a.Bus.Start(busCtx)

	state := comment.NewState(comment.Tree{
		User:           cfg.CommentUser(),
		SandboxID:      cfg.SandboxID,
		SelectedFilter: comment.Filter(cfg.TUI.Filter),
	})
	a.Comments = remarks.NewCommentService(state, remarks.Effects{
		API:       api,
		Editor:    ws,
		Boundary:  ws,
		Notifier:  a.Notify,
		Clipboard: clip,
		Router:    router,
	}, a.Bus, logging.Component("remarks"))

	return a, nil
}

// Errored reports whether an error notification was published.
func (a *App) Errored() bool {
	return a.errored.Load()
}

// Close waits for background fetches, stops the event bus and closes the
// database.
func (a *App) Close() error {
	a.Comments.Wait()
	if a.cancel != nil {
		a.cancel()
	}
	return a.DB.Close()
}

// OpenDB opens a SQLite database, moving a corrupted file aside and retrying
// once.
func OpenDB(path string) (*db.DB, error) {
	database, err := db.Open(path, db.DefaultOpenOptions())
	if err == nil {
		return database, nil
	}
	if !stores.IsCorruptionError(err) {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if rerr := stores.RecoverFromCorruption(path); rerr != nil {
		return nil, errors.Join(err, rerr)
	}
	database, err = db.Open(path, db.DefaultOpenOptions())
	if err != nil {
		return nil, fmt.Errorf("open database after recovery: %w", err)
	}
	return database, nil
}

// baseRouter links to the application root when no sandbox is configured.
type baseRouter string

func (r baseRouter) CommentURL(string) string { return string(r) }
