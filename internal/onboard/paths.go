package onboard

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"onboarder/internal/poller"
)

// ResultPath is where the status output of cfgPath is kept:
// <root>/results/<dir with _entities replaced by _results>/<base>_result<ext>,
// where <root> is the parent of cfgPath's directory.
func ResultPath(cfgPath string) string {
	parent := filepath.Dir(cfgPath)
	root := filepath.Dir(parent)
	subdir := strings.ReplaceAll(filepath.Base(parent), "_entities", "_results")
	ext := filepath.Ext(cfgPath)
	base := strings.TrimSuffix(filepath.Base(cfgPath), ext)
	return filepath.Join(root, "results", subdir, base+"_result"+ext)
}

// CategoryOf returns the partition category encoded in the directory of a
// unit file, or "" for files outside a category directory.
func CategoryOf(cfgPath string) string {
	dir := filepath.Base(filepath.Dir(cfgPath))
	if !strings.HasSuffix(dir, "_entities") {
		return ""
	}
	return strings.TrimSuffix(dir, "_entities")
}

// IsCompleted reports whether the result file exists and holds the success
// marker.
func IsCompleted(resultPath string) bool {
	data, err := os.ReadFile(resultPath)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), poller.SuccessMarker)
}

// ListConfigFiles returns the .yaml files directly inside dir, sorted.
func ListConfigFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading config directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
