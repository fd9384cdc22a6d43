// -----------------------------------------------------------------------
// File Scanner - Enumerates keyword input files in deterministic order
// -----------------------------------------------------------------------

package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/interfaces"
)

// supportedExtensions are the input file types the pipeline accepts
var supportedExtensions = map[string]bool{
	".csv": true,
	".tsv": true,
}

// Scanner lists keyword files under an input folder
type Scanner struct {
	logger arbor.ILogger
}

// NewScanner creates a filesystem scanner
func NewScanner(logger arbor.ILogger) *Scanner {
	return &Scanner{logger: logger}
}

// Scan returns the lexicographically sorted paths of supported files directly
// under inputFolder. Returns interfaces.ErrInputNotFound when the folder does
// not exist, so two runs over the same input always enumerate identically.
func (s *Scanner) Scan(ctx context.Context, inputFolder string) ([]string, error) {
	info, err := os.Stat(inputFolder)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrInputNotFound, inputFolder)
		}
		return nil, fmt.Errorf("failed to stat input folder %s: %w", inputFolder, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", interfaces.ErrInputNotFound, inputFolder)
	}

	entries, err := os.ReadDir(inputFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to read input folder %s: %w", inputFolder, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if supportedExtensions[ext] {
			paths = append(paths, filepath.Join(inputFolder, entry.Name()))
		}
	}
	sort.Strings(paths)

	s.logger.Info().
		Str("input_folder", inputFolder).
		Int("file_count", len(paths)).
		Msg("Scanned input folder")

	return paths, nil
}
