package cursor

import (
	"fmt"

	"github.com/yashagw/btrievedb/internal/key"
	"github.com/yashagw/btrievedb/internal/metadata"
)

// Query selects the single row a seek lands on. Rows come back as (id, data).
//
// Key columns are walked in index order: NULL first, then values, with the
// position breaking ties between duplicates.
type Query struct {
	SQL       string
	Args      []any
	Direction Direction
}

// NewQuery builds the query for a fresh seek with op on k.
func NewQuery(k *key.Key, op Operation, value key.Value) (*Query, error) {
	direction, err := op.Direction()
	if err != nil {
		return nil, fmt.Errorf("%s is not a new seek: %w", op, err)
	}

	column := k.ColumnName()
	var (
		where string
		args  []any
	)

	switch op.Base() {
	case GetFirst, GetLast:
	case GetEqual:
		if value.IsNull() {
			where = column + " IS NULL"
		} else {
			where = column + " = ?"
			args = []any{value.Arg()}
		}
	case GetGreater:
		if value.IsNull() {
			where = column + " IS NOT NULL"
		} else {
			where = column + " > ?"
			args = []any{value.Arg()}
		}
	case GetGreaterOrEqual:
		if !value.IsNull() {
			where = column + " >= ?"
			args = []any{value.Arg()}
		}
	case GetLess:
		if value.IsNull() {
			where = "0"
		} else {
			where = withNulls(k, column+" < ?")
			args = []any{value.Arg()}
		}
	case GetLessOrEqual:
		if value.IsNull() {
			where = column + " IS NULL"
		} else {
			where = withNulls(k, column+" <= ?")
			args = []any{value.Arg()}
		}
	}

	return &Query{
		SQL:       selectOne(column, where, direction),
		Args:      args,
		Direction: direction,
	}, nil
}

// Continue builds the query for the row after the state's last row, in the
// state's direction on k.
func (s *State) Continue(k *key.Key) (*Query, error) {
	if s.KeyNumber != k.Number() {
		return nil, fmt.Errorf("cursor is on key %d, not key %d: %w", s.KeyNumber, k.Number(), ErrInvalidOperation)
	}

	column := k.ColumnName()
	var (
		where string
		args  []any
	)

	switch {
	case s.Direction == Ascending && s.LastKey.IsNull():
		where = "(" + column + " IS NULL AND id > ?) OR " + column + " IS NOT NULL"
		args = []any{int64(s.LastPosition)}
	case s.Direction == Ascending:
		where = column + " > ? OR (" + column + " = ? AND id > ?)"
		args = []any{s.LastKey.Arg(), s.LastKey.Arg(), int64(s.LastPosition)}
	case s.LastKey.IsNull():
		where = column + " IS NULL AND id < ?"
		args = []any{int64(s.LastPosition)}
	default:
		where = withNulls(k, column+" < ? OR ("+column+" = ? AND id < ?)")
		args = []any{s.LastKey.Arg(), s.LastKey.Arg(), int64(s.LastPosition)}
	}

	return &Query{
		SQL:       selectOne(column, where, s.Direction),
		Args:      args,
		Direction: s.Direction,
	}, nil
}

// withNulls widens a "below value" condition to the NULL rows that sort
// before every value.
func withNulls(k *key.Key, where string) string {
	if !k.IsNullable() {
		return where
	}
	return where + " OR " + k.ColumnName() + " IS NULL"
}

func selectOne(column string, where string, direction Direction) string {
	sql := "SELECT id, data FROM " + metadata.DataTableName
	if where != "" {
		sql += " WHERE " + where
	}
	if direction == Ascending {
		sql += " ORDER BY " + column + ", id"
	} else {
		sql += " ORDER BY " + column + " DESC, id DESC"
	}
	return sql + " LIMIT 1"
}
