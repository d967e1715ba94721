package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileName is the log file written under the configured log directory.
const FileName = "recipeforge.log"

const defaultPoll = 250 * time.Millisecond

// Path returns the log file location inside logDir.
func Path(logDir string) string {
	return filepath.Join(logDir, FileName)
}

// Matcher selects which lines are returned. A nil Matcher keeps every line.
type Matcher func(line string) bool

// MatchRecipe keeps lines that mention id in full or in the shortened form the
// console handler prints.
func MatchRecipe(id string) Matcher {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	short := id
	if idx := strings.IndexByte(id, '-'); idx > 0 {
		short = id[:idx]
	}
	return func(line string) bool {
		return strings.Contains(line, id) || strings.Contains(line, short)
	}
}

// TailOptions controls Tail.
type TailOptions struct {
	Lines int
	Match Matcher
}

// TailResult holds the selected lines and the file offset to follow from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail returns the last opts.Lines matching lines of path. A missing file
// yields an empty result.
func Tail(path string, opts TailOptions) (TailResult, error) {
	var result TailResult

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return result, nil
		}
		return result, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return result, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return result, fmt.Errorf("log path %q is a directory", path)
	}

	limit := opts.Lines
	if limit <= 0 {
		result.Offset = info.Size()
		return result, nil
	}

	ring := make([]string, limit)
	count, idx := 0, 0
	offset, err := scanLines(file, func(line string) {
		if opts.Match != nil && !opts.Match(line) {
			return
		}
		ring[idx] = line
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return result, err
	}

	result.Offset = offset
	result.Lines = make([]string, count)
	if count == limit {
		for i := 0; i < count; i++ {
			result.Lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(result.Lines, ring[:count])
	}
	return result, nil
}

// Follow polls path for lines appended after offset and passes matching ones
// to emit. It returns when ctx ends; a truncated file restarts from the top.
func Follow(ctx context.Context, path string, offset int64, match Matcher, emit func(string)) error {
	ticker := time.NewTicker(defaultPoll)
	defer ticker.Stop()

	for {
		next, err := readFrom(path, offset, func(line string) {
			if match == nil || match(line) {
				emit(line)
			}
		})
		if err != nil {
			return err
		}
		offset = next

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func readFrom(path string, offset int64, fn func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	consumed, err := scanLines(file, fn)
	if err != nil {
		return offset, err
	}
	return offset + consumed, nil
}

// scanLines reads complete lines from r and reports how many bytes they
// covered. A trailing partial line is left for the next read.
func scanLines(r io.Reader, fn func(string)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return consumed, nil
			}
			return consumed, fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(line))
		fn(strings.TrimRight(line, "\r\n"))
	}
}
