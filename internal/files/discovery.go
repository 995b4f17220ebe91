package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"medcli/internal/errors"
)

// inputExtensions lists the formats the loader understands.
var inputExtensions = map[string]struct{}{
	".csv":  {},
	".xlsx": {},
	".xlsm": {},
}

// FileInfo describes one discovered input candidate.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery locates admissions input files. The CLI accepts a directory as
// its input argument; Discovery decides which file inside it to process.
type Discovery struct {
	logger *slog.Logger
}

// NewDiscovery creates a Discovery.
func NewDiscovery(logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{logger: logger}
}

// FindInputFiles lists the admissions files directly under dir, newest
// first. Subdirectories and spreadsheet lock files ("~$...") are ignored.
func (d *Discovery) FindInputFiles(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewIOError("failed to read input directory", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if _, ok := inputExtensions[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}
		if strings.HasPrefix(name, "~$") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(dir, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	d.logger.Debug("input discovery complete",
		slog.String("dir", dir),
		slog.Int("candidates", len(files)))

	return files, nil
}

// ResolveInput turns the CLI input argument into a concrete file path. A
// path naming a file is returned as is; a directory resolves to its most
// recently modified admissions file.
func (d *Discovery) ResolveInput(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.NewIOError("failed to stat input path", path, err)
	}
	if !info.IsDir() {
		return path, nil
	}

	files, err := d.FindInputFiles(path)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", errors.NewNotFoundError(fmt.Sprintf("admissions file in %s", path)).
			WithContext("path", path)
	}

	d.logger.Info("resolved input directory to newest file",
		slog.String("dir", path),
		slog.String("file", files[0].Name),
		slog.Time("modified", files[0].ModTime))

	return files[0].Path, nil
}
