package store

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	dirName        = ".annotate"
	sqliteFileName = "workspace.sqlite"
)

// Store is a local workspace directory. DBPath overrides the SQLite location.
type Store struct {
	Dir    string
	DBPath string
}

// DiscoverDir walks up from start looking for a .annotate directory.
func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, dirName)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	return filepath.Join(cwd, dirName), nil
}

// Open resolves a workspace from an explicit db path, or the discovered/default dir.
func Open(dbPath string) (Store, error) {
	if p := strings.TrimSpace(dbPath); p != "" {
		p = filepath.Clean(p)
		return Store{Dir: filepath.Dir(p), DBPath: p}, nil
	}
	dir, err := DefaultDir()
	if err != nil {
		return Store{}, err
	}
	return Store{Dir: dir}, nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) sqlitePath() string {
	if strings.TrimSpace(s.DBPath) != "" {
		return s.DBPath
	}
	return filepath.Join(s.Dir, sqliteFileName)
}
