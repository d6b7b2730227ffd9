// Package follow filters lines as they are appended to a file.
//
// A Watcher tails a single file, or the most recently modified file in a
// directory (switching when a newer one appears). New lines are evaluated
// against a match.Matcher in batches, and lines whose row passes the
// selector are delivered as Events.
//
//	m, err := match.Compile([]string{`ERROR`, `timeout`})
//	if err != nil {
//	    return err
//	}
//	events, errs, err := follow.Watch(ctx, m,
//	    follow.WithDir("/var/log/app"),
//	    follow.WithPredicate(match.Any()),
//	)
//	if err != nil {
//	    return err
//	}
//	for {
//	    select {
//	    case ev, ok := <-events:
//	        if !ok {
//	            return nil
//	        }
//	        fmt.Printf("%s:%d: %s\n", ev.Path, ev.Line, ev.Text)
//	    case err, ok := <-errs:
//	        if !ok {
//	            return nil
//	        }
//	        log.Printf("follow: %v", err)
//	    }
//	}
//
// Both channels are closed when the context is cancelled or Close is called.
package follow
