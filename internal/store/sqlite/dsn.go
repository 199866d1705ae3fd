package sqlite

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

const dsnScheme = "sqlite://"

// parseDSN turns sqlite://<path>[?query] into the driver's file name. Relative
// paths are anchored at the working directory; :memory: passes through.
func parseDSN(dsn string) (string, error) {
	rest, ok := strings.CutPrefix(dsn, dsnScheme)
	if !ok {
		return "", fmt.Errorf("invalid sqlite DSN scheme, expected %s", dsnScheme)
	}
	if rest == ":memory:" || strings.HasPrefix(rest, "/") || strings.HasPrefix(rest, "./") {
		return rest, nil
	}

	path, query, hasQuery := strings.Cut(rest, "?")
	path, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("unescaping path: %w", err)
	}
	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "./") {
		path = "./" + path
	}
	if hasQuery {
		return path + "?" + query, nil
	}
	return path, nil
}
