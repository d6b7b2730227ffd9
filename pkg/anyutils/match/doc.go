// Package match evaluates a list of regular expressions against a list of
// texts in parallel and filters the texts by their per-pattern results.
//
// # Basic Usage
//
// Every (text, pattern) pair is searched independently. The result is one
// [Row] per text, holding one [Result] per pattern:
//
//	rows, err := match.MatchAll(ctx,
//	    []string{"ab", "xy", "ac"},
//	    []string{`a.`, `y`},
//	)
//	// rows[0] = ["ab", <none>]
//	// rows[1] = [<none>, "y"]
//	// rows[2] = ["ac", <none>]
//
// To keep only some texts, pass a [Predicate] over the row:
//
//	hits, err := match.Filter(ctx, texts, patterns, match.Matched(0))
//	for _, h := range hits {
//	    fmt.Println(h.Index, h.Text)
//	}
//
// Filter is eager: it returns (index, text) pairs in input order once every
// evaluation has finished.
//
// # Reusing Patterns
//
// [Compile] validates all patterns up front and reports every invalid one at
// once. The returned [Matcher] can be reused across calls and goroutines:
//
//	m, err := match.Compile(patterns, match.WithEngine(match.EngineBacktrack))
//	if err != nil {
//	    var ce *match.CompileError
//	    if errors.As(err, &ce) {
//	        log.Printf("bad pattern #%d: %v", ce.Index, ce.Err)
//	    }
//	    return err
//	}
//	rows, err := m.MatchAll(ctx, texts)
//
// # Concurrency
//
// Each call runs a bounded worker pool (see [WithWorkers]) that is fully
// drained before the call returns. Output order never depends on completion
// order. The first failed evaluation cancels the rest unless
// [WithCaptureErrors] is set, in which case failures are stored in the
// failing slot's Result.Err.
package match
