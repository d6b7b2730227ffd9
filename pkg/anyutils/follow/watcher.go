package follow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anyutils/anyutils-go/internal/tailer"
	"github.com/anyutils/anyutils-go/pkg/anyutils/match"
	"github.com/anyutils/anyutils-go/pkg/anyutils/scan"
)

// watcherErrBuffer is the buffer size for the error channel.
const watcherErrBuffer = 16

// Event is a followed line accepted by the selector.
type Event struct {
	// Path is the file the line was read from.
	Path string `json:"path"`

	// Line is the 1-based position of the line among those delivered
	// from Path. With ReplayFromStart it is the line number in the file.
	Line int `json:"line"`

	Text string    `json:"text"`
	Row  match.Row `json:"row"`
}

// Watcher follows a file and filters its new lines.
type Watcher struct {
	cfg     config
	matcher *match.Matcher
	log     *slog.Logger

	mu       sync.Mutex
	closed   bool
	cancel   context.CancelFunc
	doneCh   chan struct{}
	watching bool
}

// NewWatcher validates options and prepares a Watcher.
// It does not start goroutines.
func NewWatcher(m *match.Matcher, opts ...Option) (*Watcher, error) {
	if m == nil {
		return nil, errors.New("matcher is required")
	}
	cfg := applyOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return &Watcher{cfg: *cfg, matcher: m, log: cfg.logger}, nil
}

// Watch creates a Watcher and starts it. The Watcher stops when ctx is
// cancelled; use NewWatcher and Close for synchronous shutdown.
func Watch(ctx context.Context, m *match.Matcher, opts ...Option) (<-chan Event, <-chan error, error) {
	w, err := NewWatcher(m, opts...)
	if err != nil {
		return nil, nil, err
	}
	return w.Watch(ctx)
}

// Watch starts following and returns the event and error channels.
// Both are closed on ctx.Done(), Close, or a fatal error.
// Watch can only be called once per Watcher.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, <-chan error, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, nil, ErrWatcherClosed
	}
	if w.watching {
		return nil, nil, ErrAlreadyWatching
	}
	w.watching = true

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.doneCh = make(chan struct{})

	events := make(chan Event)
	errs := make(chan error, watcherErrBuffer)

	go w.run(ctx, events, errs)

	return events, errs, nil
}

// Close stops the watcher and waits for its goroutine to exit.
// Safe to call multiple times.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.cancel != nil {
		w.cancel()
	}
	doneCh := w.doneCh
	w.mu.Unlock()

	if doneCh != nil {
		<-doneCh
	}
	return nil
}

func (w *Watcher) run(ctx context.Context, events chan<- Event, errs chan<- error) {
	defer close(w.doneCh)
	defer close(events)
	defer close(errs)

	path, err := w.findFileWithWait(ctx)
	if err != nil {
		sendError(ctx, errs, &WatchError{Op: OpFind, Path: w.cfg.dir, Err: err})
		return
	}
	w.log.Debug("following file", "path", path)

	tcfg := tailer.DefaultConfig()
	tcfg.Poll = w.cfg.poll
	tcfg.FromStart = w.cfg.replay == ReplayFromStart

	offset := 0
	if w.cfg.replay == ReplayLastN && w.cfg.lastN > 0 {
		w.log.Debug("replaying last lines", "n", w.cfg.lastN, "path", path)
		lines, err := readLastLines(path, w.cfg.lastN, w.cfg.maxReplayBytes, w.cfg.maxReplayLineBytes)
		if err != nil {
			sendError(ctx, errs, &WatchError{Op: OpReplay, Path: path, Err: err})
		}
		batch := make([]tailer.Line, len(lines))
		for i, l := range lines {
			batch[i] = tailer.Line{Text: l, Num: i + 1}
		}
		if !w.process(ctx, path, batch, events, errs) {
			return
		}
		offset = len(lines)
	}

	t, err := tailer.New(ctx, path, tcfg)
	if err != nil {
		sendError(ctx, errs, &WatchError{Op: OpTail, Path: path, Err: err})
		return
	}
	defer func() { _ = t.Stop() }()

	// Rotation only applies when following a directory.
	var rotate <-chan time.Time
	if w.cfg.dir != "" {
		ticker := time.NewTicker(w.cfg.pollInterval)
		defer ticker.Stop()
		rotate = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-t.Lines():
			if !ok {
				return
			}
			batch := w.drain(t, line, offset)
			if !w.process(ctx, path, batch, events, errs) {
				return
			}
		case err, ok := <-t.Errors():
			if !ok {
				return
			}
			sendError(ctx, errs, &WatchError{Op: OpTail, Path: path, Err: err})
		case <-rotate:
			newest, err := w.findFile(ctx)
			if err != nil {
				sendError(ctx, errs, &WatchError{Op: OpRotate, Path: w.cfg.dir, Err: err})
				continue
			}
			if newest == path {
				continue
			}
			w.log.Debug("rotation detected", "from", path, "to", newest)
			next, err := w.reopen(ctx, t, newest)
			if err != nil {
				sendError(ctx, errs, &WatchError{Op: OpTail, Path: newest, Err: err})
				continue
			}
			t = next
			path = newest
			offset = 0
		}
	}
}

// reopen starts following path from its beginning and stops cur. On
// failure cur is left running.
func (w *Watcher) reopen(ctx context.Context, cur *tailer.Tailer, path string) (*tailer.Tailer, error) {
	cfg := tailer.DefaultConfig()
	cfg.Poll = w.cfg.poll
	cfg.FromStart = true
	next, err := tailer.New(ctx, path, cfg)
	if err != nil {
		return nil, err
	}
	_ = cur.Stop()
	return next, nil
}

// drain collects first and any lines already pending, up to the batch size.
func (w *Watcher) drain(t *tailer.Tailer, first tailer.Line, offset int) []tailer.Line {
	first.Num += offset
	batch := []tailer.Line{first}
	for len(batch) < w.cfg.batchSize {
		select {
		case l, ok := <-t.Lines():
			if !ok {
				return batch
			}
			l.Num += offset
			batch = append(batch, l)
		default:
			return batch
		}
	}
	return batch
}

// process matches a batch and sends accepted lines. It returns false when
// the watcher must stop.
func (w *Watcher) process(ctx context.Context, path string, batch []tailer.Line, events chan<- Event, errs chan<- error) bool {
	if len(batch) == 0 {
		return true
	}

	texts := make([]string, len(batch))
	for i, l := range batch {
		texts[i] = l.Text
	}

	rows, err := w.matcher.MatchAll(ctx, texts)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		sendError(ctx, errs, &WatchError{Op: OpMatch, Path: path, Err: err})
		return true
	}

	for i, row := range rows {
		if w.cfg.selector != nil {
			keep, err := w.cfg.selector.Select(ctx, batch[i].Num-1, texts[i], row)
			if err != nil {
				sendError(ctx, errs, &WatchError{Op: OpSelect, Path: path, Err: err})
				continue
			}
			if !keep {
				continue
			}
		}
		select {
		case events <- Event{Path: path, Line: batch[i].Num, Text: texts[i], Row: row}:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// findFile returns the file to follow.
func (w *Watcher) findFile(ctx context.Context) (string, error) {
	if w.cfg.file != "" {
		return w.cfg.file, nil
	}
	files, err := scan.Folder(ctx, w.cfg.dir, scan.WithRecursive(false))
	if err != nil {
		return "", err
	}
	newest, err := scan.Newest(files)
	if errors.Is(err, scan.ErrNotFound) {
		return "", ErrNoFiles
	}
	if err != nil {
		return "", err
	}
	return newest.Path, nil
}

// findFileWithWait finds the file to follow, polling an empty directory
// when WithWaitForFiles is set.
func (w *Watcher) findFileWithWait(ctx context.Context) (string, error) {
	path, err := w.findFile(ctx)
	if err == nil || !errors.Is(err, ErrNoFiles) || !w.cfg.waitForFiles {
		return path, err
	}

	w.log.Debug("no files found, waiting", "dir", w.cfg.dir, "poll_interval", w.cfg.pollInterval)
	ticker := time.NewTicker(w.cfg.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			path, err := w.findFile(ctx)
			if err == nil {
				w.log.Debug("file appeared", "path", path)
				return path, nil
			}
			if !errors.Is(err, ErrNoFiles) {
				return "", err
			}
		}
	}
}

// sendError sends err without blocking; it is dropped when the buffer is full.
func sendError(ctx context.Context, errs chan<- error, err error) {
	if err == nil {
		return
	}
	select {
	case errs <- err:
	case <-ctx.Done():
	default:
	}
}
