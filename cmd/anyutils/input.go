package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineSize is the longest input line accepted (1MB).
const maxLineSize = 1 * 1024 * 1024

// stdinName labels lines read from standard input.
const stdinName = "-"

// Line is one input line with its source position.
type Line struct {
	File string
	Num  int // 1-based
	Text string
}

// readLines reads every line of r. A trailing "\r" is removed.
func readLines(r io.Reader, name string) ([]Line, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var lines []Line
	for n := 1; sc.Scan(); n++ {
		lines = append(lines, Line{
			File: name,
			Num:  n,
			Text: strings.TrimSuffix(sc.Text(), "\r"),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return lines, nil
}

// readInputs reads the named files in order, or stdin when there are none.
// The name "-" also selects stdin.
func readInputs(paths []string, stdin io.Reader) ([]Line, error) {
	if len(paths) == 0 {
		return readLines(stdin, stdinName)
	}

	var all []Line
	for _, path := range paths {
		if path == stdinName {
			lines, err := readLines(stdin, stdinName)
			if err != nil {
				return nil, err
			}
			all = append(all, lines...)
			continue
		}

		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		lines, err := readLines(f, path)
		f.Close()
		if err != nil {
			return nil, err
		}
		all = append(all, lines...)
	}
	return all, nil
}

func texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}
