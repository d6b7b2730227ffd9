package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/anyutils/anyutils-go/internal/safefile"
)

const (
	// MaxWasmFileSize is the maximum size of a Wasm file (10MB).
	MaxWasmFileSize = 10 * 1024 * 1024

	// ExpectedABIVersion is the ABI version this implementation supports.
	ExpectedABIVersion = 1

	// InputRegion is the fixed memory offset where the host writes input.
	// 64KB does not conflict with TinyGo's heap.
	InputRegion = 0x10000

	// InputRegionSize is the size of the input region (8KB).
	InputRegionSize = 8192
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// requiredExports are the functions every plugin must export.
var requiredExports = []string{"abi_version", "alloc", "free", "select"}

// compiledModule is a compiled plugin ready for instantiation.
type compiledModule struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	cache    wazero.CompilationCache
}

// Close releases the cache, compiled module and runtime, in that order.
// Safe to call multiple times.
func (c *compiledModule) Close(ctx context.Context) error {
	var errs []error

	if c.cache != nil {
		errs = append(errs, c.cache.Close(ctx))
		c.cache = nil
	}
	if c.compiled != nil {
		errs = append(errs, c.compiled.Close(ctx))
		c.compiled = nil
	}
	if c.runtime != nil {
		errs = append(errs, c.runtime.Close(ctx))
		c.runtime = nil
	}

	return errors.Join(errs...)
}

// compile reads, compiles and validates the plugin at path, registering
// host functions.
func compile(ctx context.Context, path string, hf *hostFunctions, logger *slog.Logger) (*compiledModule, error) {
	wasmBytes, err := safefile.ReadFile(path, MaxWasmFileSize)
	switch {
	case errors.Is(err, safefile.ErrTooLarge):
		return nil, ErrFileTooLarge
	case errors.Is(err, safefile.ErrNotRegularFile):
		return nil, fmt.Errorf("wasm path is not a regular file: %w", err)
	case err != nil:
		return nil, fmt.Errorf("failed to open wasm file: %w", err)
	}

	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)

	var cache wazero.CompilationCache
	if dir, err := cacheDir(); err != nil {
		logger.Debug("wasm compilation cache unavailable", "error", err)
	} else if cache, err = wazero.NewCompilationCacheWithDir(dir); err != nil {
		logger.Warn("failed to create compilation cache, continuing without cache", "error", err)
		cache = nil
	} else {
		rtConfig = rtConfig.WithCompilationCache(cache)
		logger.Debug("using wasm compilation cache", "dir", dir)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	mod := &compiledModule{runtime: rt, cache: cache}
	fail := func(err error) (*compiledModule, error) {
		// The caller's context may already be done.
		_ = mod.Close(context.Background())
		return nil, err
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return fail(&RuntimeError{Operation: "wasi instantiation", Err: err})
	}

	_, err = rt.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, strPtr, strLen, rePtr, reLen uint32) uint32 {
			return hf.regexMatch(ctx, m, strPtr, strLen, rePtr, reLen)
		}).
		Export("regex_match").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, strPtr, strLen, rePtr, reLen, outPtr, outLen uint32) uint32 {
			return hf.regexSearch(ctx, m, strPtr, strLen, rePtr, reLen, outPtr, outLen)
		}).
		Export("regex_search").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, level, ptr, msgLen uint32) {
			hf.log(ctx, m, level, ptr, msgLen)
		}).
		Export("log").
		NewFunctionBuilder().
		WithFunc(hf.nowMs).
		Export("now_ms").
		Instantiate(ctx)
	if err != nil {
		return fail(&RuntimeError{Operation: "host functions registration", Err: err})
	}

	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		return fail(&RuntimeError{Operation: "wasm compilation", Err: err})
	}
	mod.compiled = compiled

	if err := validateExports(compiled); err != nil {
		return fail(err)
	}
	return mod, nil
}

// validateExports checks that the module exports the required functions.
// The ABI version itself is checked by Load calling abi_version().
func validateExports(compiled wazero.CompiledModule) error {
	exported := compiled.ExportedFunctions()
	for _, name := range requiredExports {
		if _, ok := exported[name]; !ok {
			return &ABIError{Function: name, Reason: "missing required export"}
		}
	}
	return nil
}

// cacheDir returns the compilation cache directory, following the XDG
// Base Directory specification.
func cacheDir() (string, error) {
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(cacheHome, "anyutils", "wasm")

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
