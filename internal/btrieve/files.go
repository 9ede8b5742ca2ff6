package btrieve

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/yashagw/btrievedb/internal/convert"
	"github.com/yashagw/btrievedb/internal/file"
	"go.uber.org/zap"
)

// ParseFunc reads the legacy file at path into a model.
type ParseFunc func(path string) (*convert.Model, error)

// Files is the table of open files, keyed by the handle returned from Open.
// It is safe for concurrent use; the processors it hands out are not.
type Files struct {
	fm        *file.Manager
	converter *convert.Converter
	parse     ParseFunc
	logger    *zap.Logger

	mu   sync.Mutex
	open map[uuid.UUID]*Processor
}

// NewFiles creates a new open-file table over the data directory of fm.
func NewFiles(fm *file.Manager, parse ParseFunc, logger *zap.Logger) *Files {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Files{
		fm:        fm,
		converter: convert.NewConverter(logger),
		parse:     parse,
		logger:    logger,
		open:      make(map[uuid.UUID]*Processor),
	}
}

// Open opens fileName, converting the legacy file into a store first if no
// store exists for it yet.
func (f *Files) Open(fileName string) (uuid.UUID, *Processor, error) {
	dbPath := f.fm.StorePath(fileName)
	err := f.converter.ConvertIfAbsent(dbPath, func() (*convert.Model, error) {
		dataPath, err := f.fm.PrepareDataFile(fileName)
		if err != nil {
			return nil, err
		}
		f.logger.Info("converting legacy file", zap.String("file", dataPath), zap.String("store", dbPath))
		return f.parse(dataPath)
	})
	if errors.Is(err, os.ErrNotExist) {
		return uuid.Nil, nil, fmt.Errorf("failed to open %s: %w", fileName, ErrFileNotFound)
	}
	if err != nil {
		return uuid.Nil, nil, err
	}

	p, err := Open(dbPath, f.logger)
	if err != nil {
		return uuid.Nil, nil, err
	}

	handle := uuid.New()
	f.mu.Lock()
	f.open[handle] = p
	f.mu.Unlock()
	f.logger.Debug("opened file", zap.String("file", fileName), zap.Stringer("handle", handle))
	return handle, p, nil
}

// Get returns the processor behind handle.
func (f *Files) Get(handle uuid.UUID) (*Processor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.open[handle]
	if !ok {
		return nil, fmt.Errorf("handle %s: %w", handle, ErrFileNotOpen)
	}
	return p, nil
}

// Len returns the number of open files.
func (f *Files) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.open)
}

// Close closes the file behind handle and forgets the handle.
func (f *Files) Close(handle uuid.UUID) error {
	f.mu.Lock()
	p, ok := f.open[handle]
	delete(f.open, handle)
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("handle %s: %w", handle, ErrFileNotOpen)
	}
	return p.Close()
}

// CloseAll closes every open file. It returns the first error met but closes
// the rest regardless.
func (f *Files) CloseAll() error {
	f.mu.Lock()
	open := f.open
	f.open = make(map[uuid.UUID]*Processor)
	f.mu.Unlock()

	var first error
	for _, p := range open {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
