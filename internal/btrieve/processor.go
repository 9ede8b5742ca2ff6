package btrieve

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/yashagw/btrievedb/internal/cursor"
	"github.com/yashagw/btrievedb/internal/file"
	"github.com/yashagw/btrievedb/internal/key"
	"github.com/yashagw/btrievedb/internal/metadata"
	"github.com/yashagw/btrievedb/internal/record"
	"go.uber.org/zap"
)

const selectMaxID = "SELECT MAX(id) FROM " + metadata.DataTableName

// Processor serves one legacy file from its relational store. It keeps the
// positional cursor and the key cursor of that file. A Processor is not safe
// for concurrent use.
type Processor struct {
	path   string
	db     *sql.DB
	mm     *metadata.Manager
	logger *zap.Logger

	position     uint32
	nextPosition uint32
	state        *cursor.State
	lastUsedKey  int
}

// Open opens the store at path. The store must already exist.
func Open(path string, logger *zap.Logger) (*Processor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	exists, err := file.Exists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("failed to open %s: %w", path, ErrFileNotFound)
	}

	db, err := file.OpenStore(path)
	if err != nil {
		return nil, err
	}

	p, err := newProcessor(path, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func newProcessor(path string, db *sql.DB, logger *zap.Logger) (*Processor, error) {
	mm, err := metadata.OpenManager(db)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	var maxID sql.NullInt64
	if err := db.QueryRow(selectMaxID).Scan(&maxID); err != nil {
		return nil, fmt.Errorf("failed to read positions of %s: %w", path, err)
	}

	p := &Processor{
		path:         path,
		db:           db,
		mm:           mm,
		logger:       logger.With(zap.String("store", path)),
		nextPosition: uint32(maxID.Int64) + 1,
		lastUsedKey:  -1,
	}
	p.logger.Debug("opened store",
		zap.Int("recordLength", mm.Metadata().RecordLength),
		zap.Int("keys", len(mm.Keys())),
		zap.Uint32("nextPosition", p.nextPosition))
	return p, nil
}

// Close releases the store handle and discards the cursor state.
func (p *Processor) Close() error {
	p.state = nil
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", p.path, err)
	}
	return nil
}

// Path returns the path of the store
func (p *Processor) Path() string {
	return p.path
}

// Keys returns the keys by number. The map must not be modified.
func (p *Processor) Keys() map[uint16]*key.Key {
	return p.mm.Keys()
}

// KeyNumbers returns the key numbers in ascending order.
func (p *Processor) KeyNumbers() []uint16 {
	return p.mm.KeyNumbers()
}

// Schema returns the key columns of the data table.
func (p *Processor) Schema() *record.Schema {
	return p.mm.Schema()
}

func (p *Processor) RecordLength() int {
	return p.mm.Metadata().RecordLength
}

func (p *Processor) PhysicalRecordLength() int {
	return p.mm.Metadata().PhysicalRecordLength
}

func (p *Processor) PageLength() int {
	return p.mm.Metadata().PageLength
}

// Position returns the current physical position, 0 when unset.
func (p *Processor) Position() uint32 {
	return p.position
}

// SetPosition moves the positional cursor. Any value is accepted; reads at a
// position with no record find nothing.
func (p *Processor) SetPosition(position uint32) {
	p.position = position
}

// LastUsedKey returns the key number of the last seek, or -1 before any seek.
func (p *Processor) LastUsedKey() int {
	return p.lastUsedKey
}

// GetRecordCount counts the stored records.
func (p *Processor) GetRecordCount() (int, error) {
	var count int
	if err := p.db.QueryRow("SELECT COUNT(*) FROM " + metadata.DataTableName).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

func (p *Processor) key(keyNumber int) (*key.Key, error) {
	if keyNumber >= 0 && keyNumber <= 0xFFFF {
		if k, ok := p.mm.Keys()[uint16(keyNumber)]; ok {
			return k, nil
		}
	}
	p.logger.Error("invalid key number", zap.Int("key", keyNumber))
	return nil, fmt.Errorf("key %d: %w", keyNumber, ErrInvalidKeyNumber)
}

// queryRecord runs a query selecting (id, data) and returns nil when it finds no row.
func (p *Processor) queryRecord(query string, args ...any) (*record.Record, error) {
	var r record.Record
	err := p.db.QueryRow(query, args...).Scan(&r.Position, &r.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	return &r, nil
}
