// Package sqlitestore is the embedded-file storage provider. The whole
// database lives in an in-memory SQLite instance; after every mutating
// operation the entire file is rewritten to disk (VACUUM INTO plus rename).
// That whole-file rewrite is a known scaling bottleneck, accepted for its
// crash-consistency simplicity.
package sqlitestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"droneops/showlog/internal/config"
	"droneops/showlog/internal/constants"
	"droneops/showlog/internal/logging"
	"droneops/showlog/internal/metrics"
	"droneops/showlog/internal/models"
	gormModels "droneops/showlog/internal/models/gorm"
	"droneops/showlog/internal/store"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const label = "sqlite"

type Store struct {
	cfg        config.SQLConfig
	db         *gorm.DB
	clock      store.Clock
	dispatcher store.ShowArchivedDispatcher
	metrics    *metrics.Registry
	sweeps     singleflight.Group
}

// New builds the embedded store. Init must be called before use.
func New(cfg config.SQLConfig, dispatcher store.ShowArchivedDispatcher, clock store.Clock, m *metrics.Registry) *Store {
	return &Store{
		cfg:        cfg,
		clock:      clock,
		dispatcher: dispatcher,
		metrics:    m,
	}
}

func (s *Store) Label() string { return label }

// Init opens the in-memory database, bootstraps the schema (additive only),
// loads the on-disk snapshot when one exists, seeds default staff lists, and
// runs one lifecycle sweep.
func (s *Store) Init(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	if dir := filepath.Dir(s.cfg.Filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	// A unique shared-cache name keeps independent stores (tests, swapped
	// providers) from accidentally sharing one memory database.
	dsn := fmt.Sprintf("file:showlog-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to open embedded database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access embedded database pool: %w", err)
	}
	// One connection: mutations interleave at statement granularity, which
	// is the concurrency contract of this backend.
	sqlDB.SetMaxOpenConns(1)
	s.db = db

	if err := db.AutoMigrate(&gormModels.ShowRow{}, &gormModels.ArchivedShowRow{}, &gormModels.StaffRow{}); err != nil {
		return fmt.Errorf("failed to bootstrap embedded schema: %w", err)
	}

	if err := s.loadSnapshot(ctx); err != nil {
		return fmt.Errorf("failed to load snapshot %s: %w", s.cfg.Filename, err)
	}

	if err := s.seedStaff(ctx); err != nil {
		return err
	}

	logging.Info("embedded store initialized", "file", s.cfg.Filename)
	return s.reconcile(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) seedStaff(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&gormModels.StaffRow{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	staff := models.DefaultStaff()
	doc, err := json.Marshal(&staff)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&gormModels.StaffRow{ID: 1, Doc: string(doc)}).Error; err != nil {
		return err
	}
	return s.persist()
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

	archived := make([]models.Show, 0, len(due))
	ms := now.UnixMilli()
	for _, sh := range due {
		snapshot := sh.Clone()
		snapshot.ArchivedAt = &ms
		if err := s.saveArchived(ctx, &snapshot); err != nil {
			return err
		}
		if err := s.db.WithContext(ctx).Delete(&gormModels.ShowRow{}, "id = ?", snapshot.ID).Error; err != nil {
			return err
		}
		s.metrics.ArchiveTransitionsTotal.WithLabelValues(label, "auto").Inc()
		archived = append(archived, snapshot)
	}

	archivedShows, err := s.loadArchived(ctx)
	if err != nil {
		return err
	}
	purge := store.DueForPurge(archivedShows, now)
	for _, id := range purge {
		if err := s.db.WithContext(ctx).Delete(&gormModels.ArchivedShowRow{}, "id = ?", id).Error; err != nil {
			return err
		}
		s.metrics.ArchivePurgesTotal.WithLabelValues(label).Inc()
	}

	if len(due) > 0 || len(purge) > 0 {
		if err := s.persist(); err != nil {
			return err
		}
		logging.Info("lifecycle sweep applied",
			"store", label,
			"archived", len(due),
			"purged", len(purge),
		)
	}

	// Dispatch after the transitions are durable. Archiving is
	// unconditional; delivery is best-effort.
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
	if err := s.persist(); err != nil {
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
	if err := s.persist(); err != nil {
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

	if err := s.saveArchived(ctx, show); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Delete(&gormModels.ShowRow{}, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := s.persist(); err != nil {
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
	if err := s.persist(); err != nil {
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
	if err := s.persist(); err != nil {
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
	if err := s.persist(); err != nil {
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

	var row gormModels.ArchivedShowRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeShow(row.ID, row.Doc), nil
}

func (s *Store) GetStaff(ctx context.Context) (*models.Staff, error) {
	s.metrics.StoreOpsTotal.WithLabelValues(label, "getStaff").Inc()
	if err := s.reconcile(ctx); err != nil {
		return nil, err
	}

	var row gormModels.StaffRow
	err := s.db.WithContext(ctx).Where("id = ?", 1).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		staff := models.DefaultStaff()
		return &staff, nil
	}
	if err != nil {
		return nil, err
	}

	var staff models.Staff
	if err := json.Unmarshal([]byte(row.Doc), &staff); err != nil {
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
	row := gormModels.StaffRow{ID: 1, Doc: string(doc)}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return nil, err
	}
	if err := s.persist(); err != nil {
		return nil, err
	}
	return &staff, nil
}

func (s *Store) loadShows(ctx context.Context) ([]models.Show, error) {
	var rows []gormModels.ShowRow
	if err := s.db.WithContext(ctx).Order("updated_at DESC").Find(&rows).Error; err != nil {
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
	var rows []gormModels.ArchivedShowRow
	if err := s.db.WithContext(ctx).Order("archived_at DESC").Find(&rows).Error; err != nil {
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
	var row gormModels.ShowRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeShow(row.ID, row.Doc), nil
}

func (s *Store) saveShow(ctx context.Context, show *models.Show) error {
	doc, err := json.Marshal(show)
	if err != nil {
		return err
	}
	row := gormModels.ShowRow{ID: show.ID, UpdatedAt: show.UpdatedAt, Doc: string(doc)}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (s *Store) saveArchived(ctx context.Context, show *models.Show) error {
	doc, err := json.Marshal(show)
	if err != nil {
		return err
	}
	archivedAt := int64(0)
	if show.ArchivedAt != nil {
		archivedAt = *show.ArchivedAt
	}
	row := gormModels.ArchivedShowRow{ID: show.ID, ArchivedAt: archivedAt, Doc: string(doc)}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
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
