package stats

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadAppIDs reads whitespace separated app IDs from path. Lines starting
// with # are ignored. Duplicates are dropped, keeping first-seen order.
func ReadAppIDs(path string) ([]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open app ID file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var appIDs []int
	seen := make(map[int]bool)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		for _, field := range strings.Fields(line) {
			appID, err := strconv.Atoi(field)
			if err != nil || appID <= 0 {
				return nil, fmt.Errorf("%s:%d: invalid app ID %q", path, lineNo, field)
			}
			if seen[appID] {
				continue
			}
			seen[appID] = true
			appIDs = append(appIDs, appID)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read app ID file: %w", err)
	}

	return appIDs, nil
}
