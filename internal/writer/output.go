package writer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"giftaid-schedule-builder/pkg/errors"

	"github.com/google/uuid"
)

var numberedRunDirPattern = regexp.MustCompile(`^output_\d{4}-\d{2}-\d{2}_\((\d+)\)$`)

// createRunDirectory creates <outputs>/output_YYYY-MM-DD, or appends _(n)
// when a directory for today already exists, so repeat runs on the same day
// never overwrite each other.
func (w *Writer) createRunDirectory() (string, error) {
	if err := os.MkdirAll(w.config.OutputsDir, 0755); err != nil {
		return "", errors.FileError(errors.CodeDirectoryError, w.config.OutputsDir, err).
			WithSuggestion("Check the outputs directory path and its permissions")
	}

	baseName := fmt.Sprintf("output_%s", w.now().Format("2006-01-02"))

	entries, err := os.ReadDir(w.config.OutputsDir)
	if err != nil {
		return "", errors.FileError(errors.CodeDirectoryError, w.config.OutputsDir, err)
	}

	baseExists := false
	highest := 0
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, baseName) {
			continue
		}
		if name == baseName {
			baseExists = true
			continue
		}
		if match := numberedRunDirPattern.FindStringSubmatch(name); match != nil {
			if n, err := strconv.Atoi(match[1]); err == nil && n > highest {
				highest = n
			}
		}
	}

	name := baseName
	if baseExists {
		name = fmt.Sprintf("%s_(%d)", baseName, highest+1)
	}

	runDir := filepath.Join(w.config.OutputsDir, name)
	if err := os.Mkdir(runDir, 0755); err != nil {
		return "", errors.FileError(errors.CodeDirectoryError, runDir, err)
	}

	return runDir, nil
}

// atomicWrite writes an artifact via a uniquely-named temp file in the same
// directory, then renames it into place. The artifact name goes last so the
// temp file keeps its extension; excelize refuses to save a workbook to a
// path without one.
func (w *Writer) atomicWrite(dir, name string, write func(path string) error) error {
	tempPath := filepath.Join(dir, fmt.Sprintf(".%s.%s", uuid.NewString(), name))
	finalPath := filepath.Join(dir, name)

	if err := write(tempPath); err != nil {
		os.Remove(tempPath)
		return errors.Wrap(err, errors.CategoryFile, errors.CodeWriteFailed,
			fmt.Sprintf("failed to write %s", name)).
			WithContext("path", finalPath)
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return errors.FileError(errors.CodeWriteFailed, finalPath, err)
	}

	return nil
}

// writeTextFile writes lines to a text artifact, one per line with a
// trailing newline.
func (w *Writer) writeTextFile(dir, name string, lines []string) error {
	return w.atomicWrite(dir, name, func(path string) error {
		content := ""
		if len(lines) > 0 {
			content = strings.Join(lines, "\n") + "\n"
		}
		return os.WriteFile(path, []byte(content), 0644)
	})
}

// copyFile copies src to dest byte for byte.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
