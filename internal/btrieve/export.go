package btrieve

import (
	"fmt"

	"github.com/yashagw/btrievedb/internal/convert"
	"github.com/yashagw/btrievedb/internal/key"
	"github.com/yashagw/btrievedb/internal/metadata"
)

const selectAll = "SELECT data FROM " + metadata.DataTableName + " ORDER BY id"

// Model reads the whole file back into a model, records in position order.
// The cursor does not move.
func (p *Processor) Model() (*convert.Model, error) {
	keys := p.mm.Keys()
	var defs []key.Definition
	for _, number := range p.mm.KeyNumbers() {
		defs = append(defs, keys[number].Segments...)
	}

	rows, err := p.db.Query(selectAll)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	defer rows.Close()

	var records [][]byte
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	return &convert.Model{
		Metadata: p.mm.Metadata(),
		Keys:     defs,
		Records:  records,
	}, nil
}
