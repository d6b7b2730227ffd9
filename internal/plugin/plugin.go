package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tetratelabs/wazero"

	"github.com/anyutils/anyutils-go/pkg/anyutils/match"
)

const (
	// DefaultTimeout is the default timeout for a select call.
	DefaultTimeout = 50 * time.Millisecond

	// MaxOutputSize is the maximum size of a select result (1MB).
	MaxOutputSize = 1 * 1024 * 1024
)

// Plugin is a WebAssembly row selector. It implements match.Selector and
// is safe for concurrent use: each call runs in a fresh module instance.
type Plugin struct {
	mu            sync.RWMutex
	module        *compiledModule
	timeout       atomic.Int64
	logger        *slog.Logger
	moduleCounter atomic.Uint64
}

var _ match.Selector = (*Plugin)(nil)

type selectInput struct {
	Index int       `json:"index"`
	Text  string    `json:"text"`
	Row   match.Row `json:"row"`
}

type selectOutput struct {
	OK    bool    `json:"ok"`
	Keep  bool    `json:"keep"`
	Error *string `json:"error,omitempty"`
	Code  *string `json:"code,omitempty"`
}

// Load compiles the plugin at path and checks its ABI version.
// A nil logger discards plugin log output.
func Load(ctx context.Context, path string, logger *slog.Logger) (*Plugin, error) {
	if logger == nil {
		logger = discardLogger
	}

	mod, err := compile(ctx, path, newHostFunctions(logger), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load wasm: %w", err)
	}

	version, err := abiVersion(ctx, mod)
	if err != nil {
		_ = mod.Close(context.Background())
		return nil, err
	}
	if version != ExpectedABIVersion {
		_ = mod.Close(context.Background())
		return nil, fmt.Errorf("%w: got %d, want %d", ErrABIVersionMismatch, version, ExpectedABIVersion)
	}

	p := &Plugin{module: mod, logger: logger}
	p.timeout.Store(int64(DefaultTimeout))
	logger.Debug("loaded plugin", "abi_version", version)
	return p, nil
}

func abiVersion(ctx context.Context, mod *compiledModule) (uint32, error) {
	inst, err := mod.runtime.InstantiateModule(ctx, mod.compiled, wazero.NewModuleConfig().WithName("plugin-init"))
	if err != nil {
		return 0, &RuntimeError{Operation: "initial module instantiation", Err: err}
	}
	defer inst.Close(context.Background())

	fn := inst.ExportedFunction("abi_version")
	if fn == nil {
		return 0, &ABIError{Function: "abi_version", Reason: "not exported"}
	}
	results, err := fn.Call(ctx)
	if err != nil {
		return 0, &RuntimeError{Operation: "abi_version call", Err: err}
	}
	if len(results) == 0 {
		return 0, &ABIError{Function: "abi_version", Reason: "no return value"}
	}
	return uint32(results[0]), nil
}

// SetTimeout sets the per-call execution timeout.
func (p *Plugin) SetTimeout(timeout time.Duration) {
	p.timeout.Store(int64(timeout))
}

// Select reports whether the plugin keeps the text at index with the given row.
func (p *Plugin) Select(ctx context.Context, index int, text string, row match.Row) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.module == nil {
		return false, ErrClosed
	}

	input, err := json.Marshal(selectInput{Index: index, Text: text, Row: row})
	if err != nil {
		return false, fmt.Errorf("failed to marshal input: %w", err)
	}
	if len(input) > InputRegionSize {
		return false, fmt.Errorf("input too large: %d bytes (max %d)", len(input), InputRegionSize)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.timeout.Load()))
	defer cancel()

	name := fmt.Sprintf("plugin-%d", p.moduleCounter.Add(1))
	inst, err := p.module.runtime.InstantiateModule(ctx, p.module.compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return false, &RuntimeError{Operation: "module instantiation", Err: err}
	}
	defer inst.Close(context.Background())

	mem := inst.Memory()
	if mem == nil || InputRegion+uint32(len(input)) > mem.Size() {
		return false, fmt.Errorf("input region 0x%x + %d bytes exceeds plugin memory; plugin may need larger initial memory", InputRegion, len(input))
	}
	if !mem.Write(InputRegion, input) {
		return false, fmt.Errorf("failed to write input to wasm memory")
	}

	fn := inst.ExportedFunction("select")
	if fn == nil {
		return false, &ABIError{Function: "select", Reason: "not exported"}
	}
	results, err := fn.Call(ctx, uint64(InputRegion), uint64(len(input)))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if ctxErr == context.DeadlineExceeded {
				return false, ErrTimeout
			}
			return false, ctxErr
		}
		return false, &RuntimeError{Operation: "select call", Err: err}
	}
	if len(results) == 0 {
		return false, &ABIError{Function: "select", Reason: "no return value"}
	}

	// (out_len << 32) | out_ptr
	packed := results[0]
	outPtr := uint32(packed & 0xFFFFFFFF)
	outLen := uint32(packed >> 32)
	if outLen > MaxOutputSize {
		return false, fmt.Errorf("plugin output too large: %d bytes (max %d)", outLen, MaxOutputSize)
	}

	view, ok := mem.Read(outPtr, outLen)
	if !ok {
		return false, fmt.Errorf("failed to read output from wasm memory")
	}
	// Read returns a view of module memory; copy before free.
	out := make([]byte, len(view))
	copy(out, view)

	if freeFn := inst.ExportedFunction("free"); freeFn != nil {
		_, _ = freeFn.Call(ctx, uint64(outPtr), uint64(outLen))
	}

	var res selectOutput
	if err := json.Unmarshal(out, &res); err != nil {
		return false, fmt.Errorf("failed to unmarshal output: %w", err)
	}
	if !res.OK {
		perr := &PluginError{Message: "unknown error"}
		if res.Error != nil {
			perr.Message = *res.Error
		}
		if res.Code != nil {
			perr.Code = *res.Code
		}
		return false, perr
	}
	return res.Keep, nil
}

// Close releases the plugin. Safe to call multiple times.
func (p *Plugin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.module == nil {
		return nil
	}
	err := p.module.Close(context.Background())
	p.module = nil
	return err
}
