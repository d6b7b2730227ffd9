package follow

import (
	"bytes"

	"github.com/anyutils/anyutils-go/internal/safefile"
)

// replayChunkSize is the read size when scanning a file backwards.
const replayChunkSize = 64 * 1024

// readLastLines returns the last n non-empty lines of the file at path,
// oldest first, reading backwards in chunks.
//
// maxBytes bounds the bytes read and maxLineBytes a single line; 0 means
// unlimited. Exceeding either returns ErrReplayLimitExceeded.
func readLastLines(path string, n, maxBytes, maxLineBytes int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	f, info, err := safefile.OpenRegular(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Collected newest first.
	rev := make([]string, 0, n)
	keep := func(b []byte) error {
		if maxLineBytes > 0 && len(b) > maxLineBytes {
			return ErrReplayLimitExceeded
		}
		b = bytes.TrimSuffix(b, []byte{'\r'})
		if len(b) > 0 {
			rev = append(rev, string(b))
		}
		return nil
	}

	offset := info.Size()
	read := int64(0)
	var carry []byte // partial line at the start of what has been read

	for offset > 0 && len(rev) < n {
		step := min(int64(replayChunkSize), offset)
		if maxBytes > 0 {
			remaining := int64(maxBytes) - read
			if remaining <= 0 {
				return nil, ErrReplayLimitExceeded
			}
			step = min(step, remaining)
		}
		offset -= step
		read += step

		chunk := make([]byte, step, int(step)+len(carry))
		if _, err := f.ReadAt(chunk, offset); err != nil {
			return nil, err
		}
		data := append(chunk, carry...)

		parts := bytes.Split(data, []byte{'\n'})
		for i := len(parts) - 1; i >= 1 && len(rev) < n; i-- {
			if err := keep(parts[i]); err != nil {
				return nil, err
			}
		}
		carry = parts[0]
		if maxLineBytes > 0 && len(carry) > maxLineBytes {
			return nil, ErrReplayLimitExceeded
		}
	}

	// At the start of the file the carry is a complete line.
	if offset == 0 && len(rev) < n {
		if err := keep(carry); err != nil {
			return nil, err
		}
	}

	lines := make([]string, len(rev))
	for i, l := range rev {
		lines[len(rev)-1-i] = l
	}
	return lines, nil
}
