// Package batch reads word lists for non-interactive practice runs.
package batch

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadBatchFile reads one word or phrase per line. Blank lines and lines
// starting with '#' are skipped, surrounding whitespace is trimmed and CRLF
// line endings are accepted.
func ReadBatchFile(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return words, nil
}
