package utils

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CopyFile copies a file from src to dst, creating parent directories as
// needed.
func CopyFile(src, dst string) error {
	if err := EnsureParent(dst); err != nil {
		return err
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, srcFile)
	return err
}

// TotalSize sums the sizes of the given files. Missing files count as zero;
// the result is only used for reporting.
func TotalSize(paths []string) uint64 {
	var total uint64
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil {
			total += uint64(info.Size())
		}
	}
	return total
}

// ListFiles returns the names of the regular files directly under dir,
// optionally filtered to a suffix. Subdirectories are not descended into.
func ListFiles(dir string, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if suffix == "" || strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// FindFile returns the full path of the first regular file under dir with
// the given suffix, or an empty string when none matches.
func FindFile(dir string, suffix string) string {
	names, err := ListFiles(dir, suffix)
	if err != nil || len(names) == 0 {
		return ""
	}
	return filepath.Join(dir, names[0])
}
