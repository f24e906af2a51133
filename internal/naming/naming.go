// Package naming derives a world name from the generator's history log and
// resolves it to a name no existing run directory uses.
//
// Resolution only inspects the filesystem; it creates nothing. The gap
// between resolving and committing is closed by the organizer, which detects
// a late collision and signals a regenerate.
package naming

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// ErrEmptyName is returned when the history log yields no usable first line.
var ErrEmptyName = errors.New("history log has no world name line")

// DecodeLegacy converts the generator's code page 437 output to UTF-8.
func DecodeLegacy(b []byte) (string, error) {
	out, err := charmap.CodePage437.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode history log: %w", err)
	}
	return string(out), nil
}

// WorldNameFromHistory reads the history log at path and returns its first
// line, decoded and trimmed. The generator writes the world's name as the
// first line of that file.
func WorldNameFromHistory(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read history log: %w", err)
	}
	text, err := DecodeLegacy(raw)
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(text, "\n")
	name := sanitize(strings.TrimSpace(strings.TrimSuffix(line, "\r")))
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

// Resolve returns candidate if no run directory with that name exists under
// saveRoot, otherwise the first "<candidate>-<i>" (i starting at 0) that is
// free. Deterministic: the same directory contents always yield the same name.
func Resolve(saveRoot, candidate string) string {
	if !exists(filepath.Join(saveRoot, candidate)) {
		return candidate
	}
	for i := 0; ; i++ {
		name := fmt.Sprintf("%s-%d", candidate, i)
		if !exists(filepath.Join(saveRoot, name)) {
			return name
		}
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// sanitize strips characters that cannot appear in a directory name.
func sanitize(name string) string {
	name = strings.ReplaceAll(name, string(filepath.Separator), "-")
	return strings.Trim(name, ". ")
}
