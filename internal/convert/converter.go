package convert

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/yashagw/btrievedb/internal/file"
	"github.com/yashagw/btrievedb/internal/lock"
	"github.com/yashagw/btrievedb/internal/metadata"
	"github.com/yashagw/btrievedb/internal/record"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Loader produces the model of a legacy file. It is only called when a store
// has to be built.
type Loader func() (*Model, error)

// Converter builds relational stores from legacy file models, at most once per path.
type Converter struct {
	logger *zap.Logger
	group  singleflight.Group
}

// NewConverter creates a new converter
func NewConverter(logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{logger: logger}
}

// ConvertIfAbsent builds the store at dbPath from load unless it already exists.
// Concurrent callers in this process share one conversion and other processes
// wait on a lock file. The store appears at dbPath complete or not at all.
func (c *Converter) ConvertIfAbsent(dbPath string, load Loader) error {
	exists, err := file.Exists(dbPath)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err, _ = c.group.Do(dbPath, func() (interface{}, error) {
		return nil, c.convertLocked(dbPath, load)
	})
	return err
}

func (c *Converter) convertLocked(dbPath string, load Loader) error {
	lf, err := lock.Acquire(file.LockPath(dbPath))
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", dbPath, err)
	}
	defer lock.Release(lf)

	// Another process may have finished while we waited.
	exists, err := file.Exists(dbPath)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	model, err := load()
	if err != nil {
		return fmt.Errorf("failed to load model for %s: %w", dbPath, err)
	}
	return c.Convert(dbPath, model)
}

// Convert writes model into a new store at dbPath. The caller must hold the
// conversion lock for dbPath.
func (c *Converter) Convert(dbPath string, model *Model) (err error) {
	if err := model.Validate(); err != nil {
		return err
	}

	start := time.Now()
	c.logger.Info("converting legacy file",
		zap.String("store", dbPath),
		zap.Int("records", len(model.Records)),
		zap.Int("keys", len(model.GroupedKeys())))

	tmpPath, err := file.TempStorePath(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	db, err := file.OpenStore(tmpPath)
	if err != nil {
		return err
	}
	if err := writeStore(db, model); err != nil {
		db.Close()
		return fmt.Errorf("failed to convert %s: %w", dbPath, err)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, dbPath); err != nil {
		return fmt.Errorf("failed to move store into place: %w", err)
	}

	c.logger.Info("converted legacy file",
		zap.String("store", dbPath),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// writeStore creates the schema and inserts every record in one transaction.
// Records are numbered 1..n in physical order.
func writeStore(db *sql.DB, model *Model) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	mm, err := metadata.NewManager(tx, model.Metadata, model.GroupedKeys())
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(mm.InsertSQL())
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range model.Records {
		data := record.Pad(r, model.Metadata.RecordLength)
		keyArgs, err := mm.KeyArgs(data)
		if err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
		args := append([]any{int64(i + 1), data}, keyArgs...)
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
