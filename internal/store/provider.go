// Package store defines the uniform storage-provider contract shared by the
// embedded-file and relational-server backends, the time-based lifecycle
// rules, and the registry holding the one live provider instance.
package store

import (
	"context"
	"time"

	"droneops/showlog/internal/models"
	"droneops/showlog/internal/webhook"
)

// Clock supplies the current time. Stores take it injected so the lifecycle
// boundaries are testable.
type Clock func() time.Time

// ShowArchivedDispatcher is the side channel a store notifies when a show is
// archived automatically by the lifecycle sweep. Implemented by
// webhook.Dispatcher; delivery failure never propagates back into the store.
type ShowArchivedDispatcher interface {
	DispatchShowArchived(ctx context.Context, show *models.Show, totalShows, showIndex int, triggeredAt int64) webhook.Result
}

// Provider is the uniform CRUD + archive contract. Both backends must be
// indistinguishable through this interface except via Label.
//
// Not-found is modeled as nil results with a nil error; validation failures
// return a *models.ValidationError. Every read and mutation entry point runs
// a lifecycle sweep first, so callers always observe a reconciled view.
type Provider interface {
	// Init opens or creates the backing store, bootstraps the schema,
	// seeds default staff lists, and runs one lifecycle sweep. It is
	// idempotent and fails loudly when the store is unreachable.
	Init(ctx context.Context) error

	// Label identifies the backend ("sqlite" or "postgres").
	Label() string

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	ListShows(ctx context.Context) ([]models.Show, error)
	GetShow(ctx context.Context, id string) (*models.Show, error)
	CreateShow(ctx context.Context, show models.Show) (*models.Show, error)
	UpdateShow(ctx context.Context, id string, patch models.ShowPatch) (*models.Show, error)

	// DeleteShow moves the show straight into the archive with deletedAt
	// set and returns the archive projection.
	DeleteShow(ctx context.Context, id string) (*models.Show, error)

	// ArchiveShowNow archives early without deletedAt. It does not
	// dispatch the show.archived webhook; that is the caller's call.
	ArchiveShowNow(ctx context.Context, id string) (*models.Show, error)

	AddEntry(ctx context.Context, showID string, entry models.Entry) (*models.Show, *models.Entry, error)
	UpdateEntry(ctx context.Context, showID, entryID string, patch models.EntryPatch) (*models.Show, *models.Entry, error)
	DeleteEntry(ctx context.Context, showID, entryID string) (*models.Show, *models.Entry, error)

	ListArchivedShows(ctx context.Context) ([]models.Show, error)
	GetArchivedShow(ctx context.Context, id string) (*models.Show, error)

	GetStaff(ctx context.Context) (*models.Staff, error)
	ReplaceStaff(ctx context.Context, staff models.Staff) (*models.Staff, error)

	Close() error
}
