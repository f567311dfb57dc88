package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// exportSuffixes maps export kinds to file suffixes.
var exportSuffixes = map[string]string{
	"transcript": ".transcript.txt",
	"formatted":  ".formatted.txt",
	"metadata":   ".metadata.txt",
}

// ExportKinds lists the valid export kinds in a stable order.
func ExportKinds() []string {
	kinds := make([]string, 0, len(exportSuffixes))
	for k := range exportSuffixes {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Exporter writes script text to plain files under a single directory so
// results survive outside the database and can be picked up by other tools.
type Exporter struct {
	dir string
}

func NewExporter(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &Exporter{dir: abs}, nil
}

// Save writes one export file for a video and returns its file name.
func (e *Exporter) Save(videoID, kind, content string) (string, error) {
	suffix, ok := exportSuffixes[kind]
	if !ok {
		return "", fmt.Errorf("unknown export kind %q (valid: %s)", kind, strings.Join(ExportKinds(), ", "))
	}

	name := videoID + suffix
	full, err := e.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return "", err
	}
	return name, nil
}

// Read returns the content of a previously saved export.
func (e *Exporter) Read(name string) (string, error) {
	full, err := e.resolve(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type ExportEntry struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// List returns the saved exports, newest first.
func (e *Exporter) List() ([]ExportEntry, error) {
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		return nil, err
	}

	result := []ExportEntry{}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		result = append(result, ExportEntry{
			Name:       entry.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ModifiedAt.After(result[j].ModifiedAt)
	})
	return result, nil
}

// resolve joins a file name onto the export directory, rejecting names that
// would escape it.
func (e *Exporter) resolve(name string) (string, error) {
	full := filepath.Join(e.dir, name)
	if !strings.HasPrefix(full, e.dir+string(os.PathSeparator)) {
		return "", os.ErrPermission
	}
	return full, nil
}
