package scan_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/anyutils/anyutils-go/pkg/anyutils/scan"
)

// ExampleFolder demonstrates the breadth-first order of a scan.
func ExampleFolder() {
	dir, err := os.MkdirTemp("", "scan_example_*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	for _, name := range []string{"z.txt", "a/deep/c.txt", "a/b.txt", ".git/config"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			log.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			log.Fatal(err)
		}
	}

	files, err := scan.Folder(context.Background(), dir, scan.WithSkipDirs(".git"))
	if err != nil {
		log.Fatal(err)
	}
	for _, f := range files {
		fmt.Println(f.Entry.Name())
	}
	// Output:
	// z.txt
	// b.txt
	// c.txt
}
