package runtime

import (
	"bufio"
	"io"
	"strings"
)

// tailReader reads f fully and returns a ReadCloser over only its last
// n lines, closing f itself once the tail has been extracted.
func tailReader(f io.ReadCloser, n int) (io.ReadCloser, error) {
	defer f.Close()

	lines := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return io.NopCloser(strings.NewReader(strings.Join(lines, "\n"))), nil
}
