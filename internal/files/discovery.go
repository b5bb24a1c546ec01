package files

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"yarnpull/internal/config"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Measurement is one recording folder of a series and the rig export inside it
type Measurement struct {
	Name string // folder name, also the file stem
	Dir  string
	File FileInfo
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance. Relative directories passed to
// its methods are resolved against basePath.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindMeasurements lists the recordings of a series folder. Every subdirectory <name>
// holding a file <name><suffix> is one recording; others are reported in skipped.
// Results are sorted by folder name.
func (d *Discovery) FindMeasurements(seriesDir, suffix string) (found []Measurement, skipped []string, err error) {
	dirs, err := d.ListDirectories(seriesDir)
	if err != nil {
		return nil, nil, err
	}

	for _, dir := range dirs {
		if isOutputDir(dir.Name) {
			continue
		}
		path := filepath.Join(dir.Path, dir.Name+suffix)
		info, statErr := os.Stat(path)
		if statErr != nil || info.IsDir() {
			skipped = append(skipped, dir.Name)
			continue
		}
		found = append(found, Measurement{
			Name: dir.Name,
			Dir:  dir.Path,
			File: FileInfo{
				Path:    path,
				Name:    info.Name(),
				Size:    info.Size(),
				ModTime: info.ModTime(),
			},
		})
	}
	return found, skipped, nil
}

// FindSeries lists the series folders below a parent folder, leaving out the plot
// output folders. Results are sorted by name.
func (d *Discovery) FindSeries(parentDir string) ([]FileInfo, error) {
	dirs, err := d.ListDirectories(parentDir)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(dirs, func(f FileInfo) bool {
		return isOutputDir(f.Name)
	}), nil
}

// ListDirectories lists the visible subdirectories of dir, sorted by name
func (d *Discovery) ListDirectories(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var dirs []FileInfo
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		dirs = append(dirs, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			ModTime: info.ModTime(),
			IsDir:   true,
		})
	}

	sort.Slice(dirs, func(i, j int) bool {
		return dirs[i].Name < dirs[j].Name
	})
	return dirs, nil
}

func isOutputDir(name string) bool {
	return name == config.PlotsDirName || name == config.CombinedPlotsDirName
}
