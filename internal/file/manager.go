package file

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	DataExtension   = ".DAT"
	VirginExtension = ".VIR"
	StoreExtension  = ".DB"

	driverName = "sqlite"
)

// Manager resolves legacy file names to paths inside one data directory.
// A legacy NAME.DAT is served from the relational store NAME.DB.
type Manager struct {
	dataDir string
	logger  *zap.Logger
}

// NewManager creates a new file manager for the specified directory
func NewManager(dataDir string, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Manager{
		dataDir: dataDir,
		logger:  logger,
	}, nil
}

// Dir returns the data directory
func (fm *Manager) Dir() string {
	return fm.dataDir
}

// DataPath returns the path of the legacy file.
func (fm *Manager) DataPath(fileName string) string {
	return filepath.Join(fm.dataDir, fileName)
}

// StorePath returns the path of the relational store serving the legacy file.
func (fm *Manager) StorePath(fileName string) string {
	return filepath.Join(fm.dataDir, StoreName(fileName))
}

// StoreName replaces the extension of fileName with .DB.
func StoreName(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName)) + StoreExtension
}

// PrepareDataFile returns the path of the legacy file, first creating it from
// its .VIR copy when only the latter exists.
func (fm *Manager) PrepareDataFile(fileName string) (string, error) {
	dataPath := fm.DataPath(fileName)
	if _, err := os.Stat(dataPath); err == nil {
		return dataPath, nil
	}

	ext := filepath.Ext(fileName)
	if !strings.EqualFold(ext, DataExtension) {
		return "", fmt.Errorf("unable to locate %s: %w", fileName, os.ErrNotExist)
	}
	virginName := strings.TrimSuffix(fileName, ext) + VirginExtension
	virginPath := fm.DataPath(virginName)
	if _, err := os.Stat(virginPath); err != nil {
		return "", fmt.Errorf("unable to locate %s: %w", fileName, os.ErrNotExist)
	}

	if err := copyFile(virginPath, dataPath); err != nil {
		return "", fmt.Errorf("failed to copy %s: %w", virginName, err)
	}
	fm.logger.Warn("created data file from virgin copy",
		zap.String("file", fileName), zap.String("virgin", virginName))
	return dataPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

// Exists reports whether path names an existing file.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", path, err)
}

// LockPath returns the path of the lock file guarding conversion of dbPath.
func LockPath(dbPath string) string {
	return dbPath + ".lock"
}

// TempStorePath returns a fresh path next to dbPath for building a store before
// it is renamed into place.
func TempStorePath(dbPath string) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(dbPath), filepath.Base(dbPath)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return name, nil
}

// OpenStore opens the relational store at path. The handle uses a single
// connection so every statement sees the same transaction state.
func OpenStore(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}
	return db, nil
}
