package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"mbp_go/internal/domain"
	"mbp_go/internal/infra/mbp"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultBatchSize = 500

// Storage keeps MBP snapshots in a SQLite database, one row per snapshot,
// tagged with the run that produced them.
type Storage struct {
	db        *gorm.DB
	runID     string
	batchSize int
	pending   []domain.SnapshotRow
	buf       []byte
}

// NewStorage opens (or creates) the SQLite database at dbPath.
func NewStorage(dbPath, runID string) (*Storage, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to database: %v", domain.ErrOutputOpen, err)
	}

	if err := db.AutoMigrate(&domain.SnapshotRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return newStorage(db, runID), nil
}

func newStorage(db *gorm.DB, runID string) *Storage {
	return &Storage{
		db:        db,
		runID:     runID,
		batchSize: defaultBatchSize,
		pending:   make([]domain.SnapshotRow, 0, defaultBatchSize),
	}
}

// Write buffers the snapshot; rows reach the database in batches.
func (s *Storage) Write(index uint64, snap *domain.BookSnapshot) error {
	s.pending = append(s.pending, s.toRow(index, snap))
	if len(s.pending) >= s.batchSize {
		return s.Flush()
	}
	return nil
}

func (s *Storage) toRow(index uint64, snap *domain.BookSnapshot) domain.SnapshotRow {
	ev := &snap.Event
	s.buf = mbp.AppendLadder(s.buf[:0], snap)

	row := domain.SnapshotRow{
		RunID:     s.runID,
		RowIndex:  index,
		TsRecv:    ev.TsRecv,
		TsEvent:   ev.TsEvent,
		Action:    ev.Action.String(),
		Side:      ev.Side.String(),
		Depth:     snap.Depth,
		Flags:     ev.Flags,
		TsInDelta: ev.TsInDelta,
		Sequence:  ev.Sequence,
		BestBid:   mbp.FormatPrice(snap.Bids[0].Price),
		BestAsk:   mbp.FormatPrice(snap.Asks[0].Price),
		Ladder:    string(s.buf),
		Symbol:    ev.Symbol,
		OrderID:   ev.OrderID,
	}
	if ev.Action != domain.ActionReset {
		row.Price = mbp.FormatPrice(ev.Price)
		row.Size = ev.Size
	}
	return row
}

// Flush writes buffered rows.
func (s *Storage) Flush() error {
	if len(s.pending) == 0 {
		return nil
	}
	if err := s.db.CreateInBatches(s.pending, s.batchSize).Error; err != nil {
		return fmt.Errorf("failed to insert snapshots: %w", err)
	}
	s.pending = s.pending[:0]
	return nil
}

// Close flushes buffered rows and closes the database.
func (s *Storage) Close() error {
	err := s.Flush()
	sqlDB, dbErr := s.db.DB()
	if dbErr != nil {
		if err == nil {
			err = dbErr
		}
		return err
	}
	if cerr := sqlDB.Close(); err == nil {
		err = cerr
	}
	return err
}

// ======================================================================================
// Queries
// ======================================================================================

// GetRows returns the snapshots of a run in row order.
func (s *Storage) GetRows(runID string) ([]domain.SnapshotRow, error) {
	var rows []domain.SnapshotRow
	err := s.db.Where("run_id = ?", runID).Order("row_index").Find(&rows).Error
	return rows, err
}

// CountRows returns how many snapshots a run stored.
func (s *Storage) CountRows(runID string) (int64, error) {
	var n int64
	err := s.db.Model(&domain.SnapshotRow{}).Where("run_id = ?", runID).Count(&n).Error
	return n, err
}

// DeleteRun removes every snapshot of a run.
func (s *Storage) DeleteRun(runID string) error {
	return s.db.Where("run_id = ?", runID).Delete(&domain.SnapshotRow{}).Error
}
