// Package logging provides log/slog handlers for terminal, file, in-memory
// and callback output, plus helpers to build loggers from the environment.
//
// Console and file handlers share one line layout:
//
//	2024-01-15 23:59:59.123 │ INFO  scanning directory path=/var/log
//	2024-01-15 23:59:59.123 | INFO | scanning directory path=/var/log
//
// Levels are colored on terminals unless NO_COLOR is set.
//
// A typical command-line setup fans out to the console and a daily file:
//
//	f, err := logging.OpenDailyFile("logs", 3)
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//	logger := slog.New(logging.Tee(
//	    logging.NewConsoleHandler(os.Stderr, &logging.Options{Level: logging.LevelFromEnv()}),
//	    logging.NewFileHandler(f, nil),
//	))
package logging
