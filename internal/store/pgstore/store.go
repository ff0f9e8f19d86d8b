// Package pgstore is the relational-server storage provider. Documents keep
// the same JSON shape as the embedded backend; each row write is durable on
// its own, so there is no snapshot step.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"droneops/showlog/internal/config"
	"droneops/showlog/internal/constants"
	"droneops/showlog/internal/logging"
	"droneops/showlog/internal/metrics"
	"droneops/showlog/internal/models"
	"droneops/showlog/internal/store"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"
)

const label = "postgres"

type showRow struct {
	ID        string `db:"id" gorm:"primaryKey;type:text"`
	UpdatedAt int64  `db:"updated_at" gorm:"index"`
	Doc       string `db:"doc" gorm:"type:jsonb"`
}

type archivedShowRow struct {
	ID         string `db:"id" gorm:"primaryKey;type:text"`
	ArchivedAt int64  `db:"archived_at" gorm:"index"`
	Doc        string `db:"doc" gorm:"type:jsonb"`
}

type staffRow struct {
	ID  int    `db:"id" gorm:"primaryKey"`
	Doc string `db:"doc" gorm:"type:jsonb"`
}

// queries holds the table-qualified statements, rendered once at Init.
type queries struct {
	selectShows        string
	selectShowByID     string
	upsertShow         string
	deleteShow         string
	selectArchived     string
	selectArchivedByID string
	upsertArchived     string
	deleteArchived     string
	selectStaff        string
	upsertStaff        string
	seedStaff          string
}

type Store struct {
	cfg        config.PostgresConfig
	db         *sqlx.DB
	q          queries
	clock      store.Clock
	dispatcher store.ShowArchivedDispatcher
	metrics    *metrics.Registry
	sweeps     singleflight.Group
}

// New builds the relational store. Init must be called before use.
func New(cfg config.PostgresConfig, dispatcher store.ShowArchivedDispatcher, clock store.Clock, m *metrics.Registry) *Store {
	return &Store{
		cfg:        cfg,
		clock:      clock,
		dispatcher: dispatcher,
		metrics:    m,
	}
}

func (s *Store) Label() string { return label }

// Init connects (creating the database on first run), bootstraps the schema,
// seeds default staff lists, and runs one lifecycle sweep.
func (s *Store) Init(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	db, err := connect(s.cfg)
	if err != nil {
		return err
	}
	s.db = db
	s.q = s.renderQueries()

	if err := s.migrate(ctx); err != nil {
		return err
	}
	if err := s.seedStaff(ctx); err != nil {
		return err
	}

	logging.Info("relational store initialized",
		"host", s.cfg.Host,
		"database", s.cfg.DBName,
		"schema", s.cfg.Schema,
	)
	return s.reconcile(ctx)
}

func (s *Store) renderQueries() queries {
	shows := s.table("shows")
	archived := s.table("archived_shows")
	staff := s.table("staff")
	return queries{
		selectShows:        fmt.Sprintf(constants.PGSelectShows, shows),
		selectShowByID:     fmt.Sprintf(constants.PGSelectShowByID, shows),
		upsertShow:         fmt.Sprintf(constants.PGUpsertShow, shows),
		deleteShow:         fmt.Sprintf(constants.PGDeleteShow, shows),
		selectArchived:     fmt.Sprintf(constants.PGSelectArchived, archived),
		selectArchivedByID: fmt.Sprintf(constants.PGSelectArchivedByID, archived),
		upsertArchived:     fmt.Sprintf(constants.PGUpsertArchived, archived),
		deleteArchived:     fmt.Sprintf(constants.PGDeleteArchived, archived),
		selectStaff:        fmt.Sprintf(constants.PGSelectStaff, staff),
		upsertStaff:        fmt.Sprintf(constants.PGUpsertStaff, staff),
		seedStaff:          fmt.Sprintf(constants.PGSeedStaff, staff),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) seedStaff(ctx context.Context) error {
	staff := models.DefaultStaff()
	doc, err := json.Marshal(&staff)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.q.seedStaff, string(doc))
	return err
}

// reconcile runs the lifecycle sweep, coalescing concurrent callers into a
// single pass.
func (s *Store) reconcile(ctx context.Context) error {
	_, err, _ := s.sweeps.Do("sweep", func() (interface{}, error) {
		return nil, s.sweep(ctx)
	})
	return err
}

func (s *Store) sweep(ctx context.Context) error {
	now := s.clock()

	shows, err := s.loadShows(ctx)
	if err != nil {
		return err
	}
	due := store.DueForArchive(shows, now)

	archivedShows, err := s.loadArchived(ctx)
	if err != nil {
		return err
	}
	purge := store.DueForPurge(archivedShows, now)

	if len(due) == 0 && len(purge) == 0 {
		return nil
	}

	ms := now.UnixMilli()
	archived := make([]models.Show, 0, len(due))

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, sh := range due {
		snapshot := sh.Clone()
		snapshot.ArchivedAt = &ms
		doc, err := json.Marshal(&snapshot)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.q.upsertArchived, snapshot.ID, ms, string(doc)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.q.deleteShow, snapshot.ID); err != nil {
			return err
		}
		archived = append(archived, snapshot)
	}
	for _, id := range purge {
		if _, err := tx.ExecContext(ctx, s.q.deleteArchived, id); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	for range archived {
		s.metrics.ArchiveTransitionsTotal.WithLabelValues(label, "auto").Inc()
	}
	for range purge {
		s.metrics.ArchivePurgesTotal.WithLabelValues(label).Inc()
	}
	logging.Info("lifecycle sweep applied",
		"store", label,
		"archived", len(archived),
		"purged", len(purge),
	)

	// Dispatch after the transaction commits. Archiving is unconditional;
	// delivery is best-effort.
	if s.dispatcher != nil && len(archived) > 0 {
		for i := range archived {
			s.dispatcher.DispatchShowArchived(ctx, &archived[i], len(archived), i, ms)
		}
	}
	return nil
}

func (s *Store) ListShows(ctx context.Context) ([]models.Show, error) {
	s.metrics.StoreOpsTotal.WithLabelValues(label, "listShows").Inc()
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}
	return s.loadShows(ctx)
}

func (s *Store) GetShow(ctx context.Context, id string) (*models.Show, error) {
	s.metrics.StoreOpsTotal.WithLabelValues(label, "getShow").Inc()
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}
	return s.getShowDoc(ctx, id)
}

func (s *Store) CreateShow(ctx context.Context, show models.Show) (*models.Show, error) {
	s.metrics.StoreOpsTotal.WithLabelValues(label, "createShow").Inc()
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}

	show.Normalize()
	if err := show.Validate(); err != nil {
		return nil, err
	}

	shows, err := s.loadShows(ctx)
	if err != nil {
		return nil, err
	}
	if store.CountOnDate(shows, show.Date, "") >= constants.MaxShowsPerDate {
		return nil, models.NewValidationError(constants.MsgDailyShowLimit)
	}

	show.Stamp(s.clock())
	if err := s.saveShow(ctx, &show); err != nil {
		return nil, err
	}
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}
	return &show, nil
}

func (s *Store) UpdateShow(ctx context.Context, id string, patch models.ShowPatch) (*models.Show, error) {
	s.metrics.StoreOpsTotal.WithLabelValues(label, "updateShow").Inc()
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}

	show, err := s.getShowDoc(ctx, id)
	if err != nil || show == nil {
		return nil, err
	}

	patch.Apply(show)
	show.Normalize()
	if err := show.Validate(); err != nil {
		return nil, err
	}

	shows, err := s.loadShows(ctx)
	if err != nil {
		return nil, err
	}
	if store.CountOnDate(shows, show.Date, show.ID) >= constants.MaxShowsPerDate {
		return nil, models.NewValidationError(constants.MsgDailyShowLimit)
	}

	show.UpdatedAt = s.clock().UnixMilli()
	if err := s.saveShow(ctx, show); err != nil {
		return nil, err
	}
	return show, nil
}

// DeleteShow moves the show straight into the archive with deletedAt set.
func (s *Store) DeleteShow(ctx context.Context, id string) (*models.Show, error) {
	s.metrics.StoreOpsTotal.WithLabelValues(label, "deleteShow").Inc()
	return s.retire(ctx, id, true)
}

// ArchiveShowNow archives early, without deletedAt and without dispatching.
func (s *Store) ArchiveShowNow(ctx context.Context, id string) (*models.Show, error) {
	s.metrics.StoreOpsTotal.WithLabelValues(label, "archiveShowNow").Inc()
	return s.retire(ctx, id, false)
}

func (s *Store) retire(ctx context.Context, id string, deleted bool) (*models.Show, error) {
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}

	show, err := s.getShowDoc(ctx, id)
	if err != nil || show == nil {
		return nil, err
	}

	ms := s.clock().UnixMilli()
	show.ArchivedAt = &ms
	trigger := "manual"
	if deleted {
		show.DeletedAt = &ms
		trigger = "deleted"
	}
	doc, err := json.Marshal(show)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.q.upsertArchived, show.ID, ms, string(doc)); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, s.q.deleteShow, show.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.metrics.ArchiveTransitionsTotal.WithLabelValues(label, trigger).Inc()
	return show, nil
}

func (s *Store) AddEntry(ctx context.Context, showID string, entry models.Entry) (*models.Show, *models.Entry, error) {
	s.metrics.StoreOpsTotal.WithLabelValues(label, "addEntry").Inc()
	if err := s.reconcile(ctx); err != nil {
		return nil, nil, err
	}

	show, err := s.getShowDoc(ctx, showID)
	if err != nil || show == nil {
		return nil, nil, err
	}

	entry.Normalize()
	entry.Stamp(s.clock())
	if show.HasOperator(entry.Operator, "") {
		return nil, nil, models.NewValidationError(constants.MsgDuplicateOperator)
	}

	show.Entries = append(show.Entries, entry)
	show.UpdatedAt = s.clock().UnixMilli()

	if err := s.saveShow(ctx, show); err != nil {
		return nil, nil, err
	}
	return show, &show.Entries[len(show.Entries)-1], nil
}

func (s *Store) UpdateEntry(ctx context.Context, showID, entryID string, patch models.EntryPatch) (*models.Show, *models.Entry, error) {
	s.metrics.StoreOpsTotal.WithLabelValues(label, "updateEntry").Inc()
	if err := s.reconcile(ctx); err != nil {
		return nil, nil, err
	}

	show, err := s.getShowDoc(ctx, showID)
	if err != nil || show == nil {
		return nil, nil, err
	}
	idx := show.FindEntry(entryID)
	if idx < 0 {
		return nil, nil, nil
	}

	entry := show.Entries[idx].Clone()
	patch.Apply(&entry)
	entry.Normalize()
	if show.HasOperator(entry.Operator, entryID) {
		return nil, nil, models.NewValidationError(constants.MsgDuplicateOperator)
	}

	show.Entries[idx] = entry
	show.UpdatedAt = s.clock().UnixMilli()

	if err := s.saveShow(ctx, show); err != nil {
		return nil, nil, err
	}
	return show, &show.Entries[idx], nil
}

func (s *Store) DeleteEntry(ctx context.Context, showID, entryID string) (*models.Show, *models.Entry, error) {
	s.metrics.StoreOpsTotal.WithLabelValues(label, "deleteEntry").Inc()
	if err := s.reconcile(ctx); err != nil {
		return nil, nil, err
	}

	show, err := s.getShowDoc(ctx, showID)
	if err != nil || show == nil {
		return nil, nil, err
	}
	idx := show.FindEntry(entryID)
	if idx < 0 {
		return nil, nil, nil
	}

	removed := show.Entries[idx].Clone()
	show.Entries = append(show.Entries[:idx], show.Entries[idx+1:]...)
	show.UpdatedAt = s.clock().UnixMilli()

	if err := s.saveShow(ctx, show); err != nil {
		return nil, nil, err
	}
	return show, &removed, nil
}

func (s *Store) ListArchivedShows(ctx context.Context) ([]models.Show, error) {
	s.metrics.StoreOpsTotal.WithLabelValues(label, "listArchivedShows").Inc()
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}
	return s.loadArchived(ctx)
}

func (s *Store) GetArchivedShow(ctx context.Context, id string) (*models.Show, error) {
	s.metrics.StoreOpsTotal.WithLabelValues(label, "getArchivedShow").Inc()
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}

	var doc string
	err := s.db.GetContext(ctx, &doc, s.q.selectArchivedByID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeShow(id, doc), nil
}

func (s *Store) GetStaff(ctx context.Context) (*models.Staff, error) {
	s.metrics.StoreOpsTotal.WithLabelValues(label, "getStaff").Inc()
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}

	var doc string
	err := s.db.GetContext(ctx, &doc, s.q.selectStaff)
	if errors.Is(err, sql.ErrNoRows) {
		staff := models.DefaultStaff()
		return &staff, nil
	}
	if err != nil {
		return nil, err
	}

	var staff models.Staff
	if err := json.Unmarshal([]byte(doc), &staff); err != nil {
		logging.Warn("skipping malformed staff document", "store", label, "error", err.Error())
		staff = models.DefaultStaff()
	}
	return &staff, nil
}

func (s *Store) ReplaceStaff(ctx context.Context, staff models.Staff) (*models.Staff, error) {
	s.metrics.StoreOpsTotal.WithLabelValues(label, "replaceStaff").Inc()
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}

	staff.Normalize()
	doc, err := json.Marshal(&staff)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, s.q.upsertStaff, string(doc)); err != nil {
		return nil, err
	}
	return &staff, nil
}

func (s *Store) loadShows(ctx context.Context) ([]models.Show, error) {
	var rows []showRow
	if err := s.db.SelectContext(ctx, &rows, s.q.selectShows); err != nil {
		return nil, err
	}
	shows := make([]models.Show, 0, len(rows))
	for _, row := range rows {
		if sh := decodeShow(row.ID, row.Doc); sh != nil {
			shows = append(shows, *sh)
		}
	}
	return shows, nil
}

func (s *Store) loadArchived(ctx context.Context) ([]models.Show, error) {
	var rows []archivedShowRow
	if err := s.db.SelectContext(ctx, &rows, s.q.selectArchived); err != nil {
		return nil, err
	}
	shows := make([]models.Show, 0, len(rows))
	for _, row := range rows {
		if sh := decodeShow(row.ID, row.Doc); sh != nil {
			shows = append(shows, *sh)
		}
	}
	return shows, nil
}

func (s *Store) getShowDoc(ctx context.Context, id string) (*models.Show, error) {
	var doc string
	err := s.db.GetContext(ctx, &doc, s.q.selectShowByID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeShow(id, doc), nil
}

func (s *Store) saveShow(ctx context.Context, show *models.Show) error {
	doc, err := json.Marshal(show)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.q.upsertShow, show.ID, show.UpdatedAt, string(doc))
	return err
}

// decodeShow parses a stored document, treating corrupted rows as absent.
func decodeShow(id, doc string) *models.Show {
	var show models.Show
	if err := json.Unmarshal([]byte(doc), &show); err != nil {
		logging.Warn("skipping malformed show document", "store", label, "id", id, "error", err.Error())
		return nil
	}
	return &show
}
