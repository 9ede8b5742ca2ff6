package btrieve

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/yashagw/btrievedb/internal/key"
	"github.com/yashagw/btrievedb/internal/metadata"
	"github.com/yashagw/btrievedb/internal/record"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	deleteByID = "DELETE FROM " + metadata.DataTableName + " WHERE id = ?"
	deleteAll  = "DELETE FROM " + metadata.DataTableName
)

// Insert stores data as a new record at the next unused position and moves the
// cursor to it. It returns 0 without error when a unique key would be duplicated.
func (p *Processor) Insert(data []byte) (uint32, error) {
	buf := record.Pad(data, p.RecordLength())

	tx, err := p.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin insert: %w", err)
	}
	defer tx.Rollback()

	buf, err = p.fillAutoInc(tx, buf)
	if err != nil {
		return 0, err
	}

	keyArgs, ok, err := p.checkedKeyArgs(tx, buf, 0)
	if err != nil || !ok {
		return 0, err
	}

	position, err := p.allocatePosition(tx)
	if err != nil {
		return 0, err
	}
	args := append([]any{int64(position), buf}, keyArgs...)
	if _, err := tx.Exec(p.mm.InsertSQL(), args...); err != nil {
		if isUniqueViolation(err) {
			p.logger.Debug("insert violates a unique key", zap.Error(err))
			return 0, nil
		}
		return 0, fmt.Errorf("failed to insert record at %d: %w", position, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit insert: %w", err)
	}

	p.nextPosition = position + 1
	p.position = position
	return position, nil
}

// allocatePosition returns the position for a new record: above every stored
// record, including those inserted through other handles on the same store, and
// above every position this processor has handed out.
func (p *Processor) allocatePosition(tx *sql.Tx) (uint32, error) {
	var maxID sql.NullInt64
	if err := tx.QueryRow(selectMaxID).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("failed to read positions: %w", err)
	}
	position := p.nextPosition
	if next := uint32(maxID.Int64) + 1; next > position {
		position = next
	}
	return position, nil
}

// Update replaces the record at position and re-projects its keys. It returns
// false without error when there is no such record or a unique key would be
// duplicated; UpdateStatus tells the two apart. The cursor does not move.
func (p *Processor) Update(position uint32, data []byte) (bool, error) {
	status, err := p.UpdateStatus(position, data)
	return status == Success, err
}

// UpdateStatus is Update reporting why it failed: InvalidPositioning when no
// record is stored at position, DuplicateKeyValue when a unique key is taken.
func (p *Processor) UpdateStatus(position uint32, data []byte) (Status, error) {
	buf := record.Pad(data, p.RecordLength())

	tx, err := p.db.Begin()
	if err != nil {
		return IOError, fmt.Errorf("failed to begin update: %w", err)
	}
	defer tx.Rollback()

	found, err := p.exists(tx, position)
	if err != nil {
		return IOError, err
	}
	if !found {
		return InvalidPositioning, nil
	}

	keyArgs, ok, err := p.checkedKeyArgs(tx, buf, position)
	if err != nil {
		return IOError, err
	}
	if !ok {
		return DuplicateKeyValue, nil
	}

	args := append([]any{buf}, keyArgs...)
	args = append(args, int64(position))
	if _, err := tx.Exec(p.mm.UpdateSQL(), args...); err != nil {
		if isUniqueViolation(err) {
			p.logger.Debug("update violates a unique key", zap.Uint32("position", position), zap.Error(err))
			return DuplicateKeyValue, nil
		}
		return IOError, fmt.Errorf("failed to update record %d: %w", position, err)
	}
	if err := tx.Commit(); err != nil {
		return IOError, fmt.Errorf("failed to commit update: %w", err)
	}
	return Success, nil
}

// Delete removes the record at the current position. The cursor does not move.
func (p *Processor) Delete() (bool, error) {
	res, err := p.db.Exec(deleteByID, int64(p.position))
	if err != nil {
		return false, fmt.Errorf("failed to delete record %d: %w", p.position, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete record %d: %w", p.position, err)
	}
	return affected > 0, nil
}

// DeleteAll removes every record and resets the position to 0.
func (p *Processor) DeleteAll() (bool, error) {
	res, err := p.db.Exec(deleteAll)
	if err != nil {
		return false, fmt.Errorf("failed to delete records: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete records: %w", err)
	}
	p.position = 0
	return affected > 0, nil
}

// fillAutoInc writes max+1 into every AutoInc key whose bytes are all zero,
// including bytes past the end of the caller's buffer.
func (p *Processor) fillAutoInc(tx *sql.Tx, buf []byte) ([]byte, error) {
	keys := p.mm.Keys()
	for _, number := range p.mm.KeyNumbers() {
		k := keys[number]
		if !k.IsAutoInc() || !k.IsZeroIn(buf) {
			continue
		}
		if !k.WindowInside(len(buf)) {
			buf = record.Pad(buf, k.End())
		}

		var maxValue sql.NullInt64
		err := tx.QueryRow("SELECT MAX(" + k.ColumnName() + ") FROM " + metadata.DataTableName).Scan(&maxValue)
		if err != nil {
			return nil, fmt.Errorf("failed to read key %d maximum: %w", number, err)
		}
		k.PutUnsigned(buf, uint64(maxValue.Int64+1))
	}
	return buf, nil
}

// checkedKeyArgs projects every key of buf and checks unique keys against the
// other records. ok is false when a unique value is already taken by a record
// other than position. NULL never conflicts.
func (p *Processor) checkedKeyArgs(tx *sql.Tx, buf []byte, position uint32) ([]any, bool, error) {
	keys := p.mm.Keys()
	args := make([]any, 0, len(keys))
	for _, number := range p.mm.KeyNumbers() {
		k := keys[number]
		v, err := k.Project(buf)
		if err != nil {
			return nil, false, fmt.Errorf("failed to project key %d: %w", number, err)
		}
		if k.IsUnique() && !v.IsNull() {
			taken, err := p.valueTaken(tx, k, v, position)
			if err != nil {
				return nil, false, err
			}
			if taken {
				p.logger.Debug("duplicate key value",
					zap.Uint16("key", number), zap.Stringer("value", v), zap.Uint32("position", position))
				return nil, false, nil
			}
		}
		args = append(args, v.Arg())
	}
	return args, true, nil
}

func (p *Processor) valueTaken(tx *sql.Tx, k *key.Key, v key.Value, position uint32) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM " + metadata.DataTableName + " WHERE " + k.ColumnName() + " = ? AND id <> ?"
	if err := tx.QueryRow(query, v.Arg(), int64(position)).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check key %d: %w", k.Number(), err)
	}
	return count > 0, nil
}

// isUniqueViolation reports whether err is SQLite rejecting a duplicate value in
// a UNIQUE key column. A clash on the id primary key is not one: positions are
// allocated by the engine, so that is a storage error.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
