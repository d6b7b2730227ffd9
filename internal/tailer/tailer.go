// Package tailer follows a growing file line by line.
package tailer

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/nxadm/tail"
)

// Config configures a Tailer.
type Config struct {
	// FromStart reads the existing content before following.
	// Otherwise only lines appended after New are delivered.
	FromStart bool

	// Poll uses stat polling instead of filesystem notifications.
	Poll bool

	// ReOpen reopens the file when it is truncated, moved or recreated.
	ReOpen bool
}

// DefaultConfig returns the configuration used when following a live file.
func DefaultConfig() Config {
	return Config{ReOpen: true}
}

// Line is one line of the followed file.
type Line struct {
	// Text is the line without its terminator.
	Text string

	// Num is the 1-based count of lines delivered by this Tailer.
	Num int
}

// Tailer delivers lines appended to a file.
type Tailer struct {
	t      *tail.Tail
	lines  chan Line
	errs   chan error
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// tailerErrBuffer is the buffer size of the error channel.
const tailerErrBuffer = 16

// New starts following path. The file must exist.
// Both channels are closed when ctx is cancelled or Stop is called.
func New(ctx context.Context, path string, cfg Config) (*Tailer, error) {
	tcfg := tail.Config{
		Follow:    true,
		ReOpen:    cfg.ReOpen,
		Poll:      cfg.Poll,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	}
	if !cfg.FromStart {
		tcfg.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(path, tcfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	tl := &Tailer{
		t:      t,
		lines:  make(chan Line),
		errs:   make(chan error, tailerErrBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go tl.run(ctx)
	return tl, nil
}

// Lines returns the channel of lines. It is closed when the Tailer stops.
func (tl *Tailer) Lines() <-chan Line {
	return tl.lines
}

// Errors returns the channel of read errors. It is closed when the Tailer stops.
func (tl *Tailer) Errors() <-chan error {
	return tl.errs
}

// Stop stops following and waits for the delivery goroutine to exit.
// Safe to call multiple times.
func (tl *Tailer) Stop() error {
	var err error
	tl.once.Do(func() {
		tl.cancel()
		err = tl.t.Stop()
		tl.t.Cleanup()
	})
	<-tl.done
	return err
}

func (tl *Tailer) run(ctx context.Context) {
	defer close(tl.done)
	defer close(tl.lines)
	defer close(tl.errs)

	num := 0
	for {
		select {
		case <-ctx.Done():
			return
		case l, ok := <-tl.t.Lines:
			if !ok {
				return
			}
			if l.Err != nil {
				select {
				case tl.errs <- l.Err:
				default:
				}
				continue
			}
			num++
			line := Line{Text: strings.TrimSuffix(l.Text, "\r"), Num: num}
			select {
			case tl.lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}
}
