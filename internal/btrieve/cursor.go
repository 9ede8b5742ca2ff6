package btrieve

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/yashagw/btrievedb/internal/cursor"
	"github.com/yashagw/btrievedb/internal/key"
	"github.com/yashagw/btrievedb/internal/metadata"
	"github.com/yashagw/btrievedb/internal/record"
	"go.uber.org/zap"
)

const (
	selectByID       = "SELECT id, data FROM " + metadata.DataTableName + " WHERE id = ?"
	selectFirst      = "SELECT id FROM " + metadata.DataTableName + " ORDER BY id LIMIT 1"
	selectLast       = "SELECT id FROM " + metadata.DataTableName + " ORDER BY id DESC LIMIT 1"
	selectAfter      = "SELECT id FROM " + metadata.DataTableName + " WHERE id > ? ORDER BY id LIMIT 1"
	selectBefore     = "SELECT id FROM " + metadata.DataTableName + " WHERE id < ? ORDER BY id DESC LIMIT 1"
	selectPositionOf = "SELECT COUNT(*) FROM " + metadata.DataTableName + " WHERE id = ?"
)

// GetRecord reads the record at the current position, nil if there is none.
func (p *Processor) GetRecord() (*record.Record, error) {
	return p.GetRecordAt(p.position)
}

// GetRecordAt reads the record at position without moving the cursor.
func (p *Processor) GetRecordAt(position uint32) (*record.Record, error) {
	if position == 0 {
		return nil, nil
	}
	return p.queryRecord(selectByID, int64(position))
}

// StepFirst moves to the lowest position.
func (p *Processor) StepFirst() (bool, error) {
	return p.step(selectFirst)
}

// StepLast moves to the highest position.
func (p *Processor) StepLast() (bool, error) {
	return p.step(selectLast)
}

// StepNext moves to the nearest position above the current one.
func (p *Processor) StepNext() (bool, error) {
	return p.step(selectAfter, int64(p.position))
}

// StepPrevious moves to the nearest position below the current one.
func (p *Processor) StepPrevious() (bool, error) {
	return p.step(selectBefore, int64(p.position))
}

// step moves to the position query finds. The position is unchanged when it finds none.
func (p *Processor) step(query string, args ...any) (bool, error) {
	var id uint32
	err := p.db.QueryRow(query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to step: %w", err)
	}
	p.position = id
	return true, nil
}

// SeekByKey navigates by key. With newQuery set, op picks the starting row and
// the direction of the walk. Otherwise the walk continues from the last row
// returned on keyNumber in the remembered direction and op is only checked to
// be a key operation. The cursor moves to the row found; nothing changes when
// no row qualifies.
func (p *Processor) SeekByKey(keyNumber int, keyData []byte, op cursor.Operation, newQuery bool) (bool, error) {
	k, err := p.key(keyNumber)
	if err != nil {
		return false, err
	}
	if !op.IsSeek() {
		p.logger.Error("not a key operation", zap.Stringer("op", op))
		return false, fmt.Errorf("%s: %w", op, cursor.ErrInvalidOperation)
	}
	p.lastUsedKey = keyNumber

	if newQuery {
		return p.seek(k, keyData, op)
	}
	return p.continueSeek(k)
}

func (p *Processor) seek(k *key.Key, keyData []byte, op cursor.Operation) (bool, error) {
	value := key.Null()
	switch op.Base() {
	case cursor.GetFirst, cursor.GetLast:
	case cursor.GetNext, cursor.GetPrevious:
		p.logger.Error("continue operation used as a new query", zap.Stringer("op", op))
		return false, fmt.Errorf("%s needs a previous seek: %w", op, cursor.ErrInvalidOperation)
	default:
		v, err := k.FromKeyData(keyData)
		if err != nil {
			return false, err
		}
		value = v
	}

	q, err := cursor.NewQuery(k, op, value)
	if err != nil {
		return false, err
	}
	r, lastKey, err := p.seekRow(k, q)
	if err != nil || r == nil {
		return false, err
	}

	p.state = cursor.NewState(k.Number(), q.Direction, lastKey, r.Position)
	p.position = r.Position
	return true, nil
}

func (p *Processor) continueSeek(k *key.Key) (bool, error) {
	if p.state == nil || p.state.KeyNumber != k.Number() {
		return false, nil
	}

	q, err := p.state.Continue(k)
	if err != nil {
		return false, err
	}
	r, lastKey, err := p.seekRow(k, q)
	if err != nil || r == nil {
		return false, err
	}

	p.state.Advance(lastKey, r.Position)
	p.position = r.Position
	return true, nil
}

// seekRow runs a seek query and projects the key of the row it lands on.
func (p *Processor) seekRow(k *key.Key, q *cursor.Query) (*record.Record, key.Value, error) {
	r, err := p.queryRecord(q.SQL, q.Args...)
	if err != nil || r == nil {
		return nil, key.Value{}, err
	}
	lastKey, err := k.Project(r.Data)
	if err != nil {
		return nil, key.Value{}, fmt.Errorf("failed to project key %d of record %d: %w", k.Number(), r.Position, err)
	}
	return r, lastKey, nil
}

// exists reports whether a record is stored at position.
func (p *Processor) exists(q metadata.Querier, position uint32) (bool, error) {
	var count int
	if err := q.QueryRow(selectPositionOf, int64(position)).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to look up record %d: %w", position, err)
	}
	return count > 0, nil
}
