package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// MaxDailyFileSize is the size at which a daily log file is considered full.
const MaxDailyFileSize = 10 * 1024 * 1024

const lockFileName = ".anyutils-log.lock"

// maxFileSize is MaxDailyFileSize, replaceable in tests.
var maxFileSize int64 = MaxDailyFileSize

// DailyFileName returns the name of log file index i for the day of t.
func DailyFileName(t time.Time, i int) string {
	return fmt.Sprintf("%s_main_%d.log", t.Format("2006-01-02"), i)
}

// OpenDailyFile opens today's log file in dir for appending, creating dir
// if needed.
//
// With cycle <= 0 index 0 is always used. Otherwise the first index in
// [0, cycle) whose file is missing or smaller than MaxDailyFileSize is
// chosen; when every file is full, index 0 is truncated and reused.
// Selection holds an exclusive lock on dir so concurrent processes agree.
func OpenDailyFile(dir string, cycle int) (*os.File, error) {
	return openDailyFile(dir, cycle, time.Now())
}

func openDailyFile(dir string, cycle int, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("locking log directory: %w", err)
	}
	defer lock.Unlock()

	index, truncate, err := pickDailyIndex(dir, cycle, now)
	if err != nil {
		return nil, err
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if truncate {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(filepath.Join(dir, DailyFileName(now, index)), flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

func pickDailyIndex(dir string, cycle int, now time.Time) (index int, truncate bool, err error) {
	if cycle <= 0 {
		return 0, false, nil
	}
	for i := range cycle {
		info, err := os.Stat(filepath.Join(dir, DailyFileName(now, i)))
		if errors.Is(err, fs.ErrNotExist) {
			return i, false, nil
		}
		if err != nil {
			return 0, false, fmt.Errorf("checking log file: %w", err)
		}
		if info.Size() < maxFileSize {
			return i, false, nil
		}
	}
	return 0, true, nil
}
