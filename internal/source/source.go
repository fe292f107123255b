// Package source reads the ordered list of work items to process. The input
// is one JSON object per line with "title" and "content" fields; the whole
// list is materialized before processing starts.
package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arjunvn/tracelate/internal/fsops"
)

const (
	openInputErrorFormat      = "open input %s: %w"
	decodeInputLineErrorFmt   = "decode input %s line %d: %w"
	scanInputErrorFormat      = "scan input %s: %w"
	maximumInputLineSizeBytes = 16 * 1024 * 1024
)

// WorkItem is one problem statement awaiting trace generation and translation.
type WorkItem struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ReadItems parses up to limit work items from the JSONL file at path.
// A limit of zero or less reads every entry. Blank lines are skipped;
// a malformed line fails the whole read.
func ReadItems(fileSystem fsops.FS, path string, limit int) ([]WorkItem, error) {
	reader, openErr := fileSystem.Open(path)
	if openErr != nil {
		return nil, fmt.Errorf(openInputErrorFormat, path, openErr)
	}
	defer func() { _ = reader.Close() }()

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maximumInputLineSizeBytes)

	var items []WorkItem
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var item WorkItem
		if decodeErr := json.Unmarshal([]byte(line), &item); decodeErr != nil {
			return nil, fmt.Errorf(decodeInputLineErrorFmt, path, lineNumber, decodeErr)
		}
		items = append(items, item)

		if limit > 0 && len(items) >= limit {
			break
		}
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return nil, fmt.Errorf(scanInputErrorFormat, path, scanErr)
	}
	return items, nil
}
