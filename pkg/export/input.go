package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// readLines calls fn for every non-blank, non-comment line
func readLines(r io.Reader, fn func(line int, text string) error) error {
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := fn(n, text); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ReadIDs reads one numeric user ID per line
func ReadIDs(r io.Reader) ([]int64, error) {
	var ids []int64
	err := readLines(r, func(line int, text string) error {
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("line %d: invalid user id %q", line, text)
		}
		ids = append(ids, id)
		return nil
	})
	return ids, err
}

// ReadHandles reads one screen name per line. A leading @ is dropped.
func ReadHandles(r io.Reader) ([]string, error) {
	var handles []string
	err := readLines(r, func(line int, text string) error {
		h := strings.TrimPrefix(text, "@")
		if h == "" || strings.ContainsAny(h, " \t,") {
			return fmt.Errorf("line %d: invalid screen name %q", line, text)
		}
		handles = append(handles, h)
		return nil
	})
	return handles, err
}

// ReadIDsFile reads IDs from path; "-" reads stdin
func ReadIDsFile(path string) ([]int64, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ids, err := ReadIDs(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ids, nil
}

// ReadHandlesFile reads screen names from path; "-" reads stdin
func ReadHandlesFile(path string) ([]string, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	handles, err := ReadHandles(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return handles, nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}
