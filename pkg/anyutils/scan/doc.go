// Package scan lists the regular files beneath a directory.
//
// Directories are visited breadth-first, so files closer to the root come
// first. Entries within a directory are in lexical order.
//
//	files, err := scan.Folder(ctx, "/var/log", scan.WithSkipDirs(".git"))
//	if err != nil {
//	    return err
//	}
//	for _, f := range files {
//	    fmt.Println(f.Path)
//	}
//
// When the given path is a file, its parent directory is scanned.
package scan
