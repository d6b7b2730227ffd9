package follow

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrWatcherClosed       = errors.New("watcher closed")
	ErrAlreadyWatching     = errors.New("already watching")
	ErrNoFiles             = errors.New("no files to follow")
	ErrNoTarget            = errors.New("either a file or a directory must be set")
	ErrReplayLimitExceeded = errors.New("replay limit exceeded")
)

// Op identifies the stage of a watch that failed.
type Op string

// Watch stages reported in WatchError.
const (
	OpFind   Op = "find"
	OpReplay Op = "replay"
	OpTail   Op = "tail"
	OpRotate Op = "rotate"
	OpMatch  Op = "match"
	OpSelect Op = "select"
)

// WatchError reports a failure while following.
type WatchError struct {
	Op   Op
	Path string
	Err  error
}

func (e *WatchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("follow %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("follow %s: %v", e.Op, e.Err)
}

func (e *WatchError) Unwrap() error {
	return e.Err
}
