package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// sanitize makes s safe as a filename component: spaces become "_", path
// separators become "-", anything else outside [A-Za-z0-9._-] becomes "_".
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case r == '/' || r == '\\':
			b.WriteByte('-')
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// uniqueBase returns base, or base_001, base_002, ... whichever is the first
// name for which dir/<name><ext> does not exist yet.
func uniqueBase(dir, base, ext string) string {
	if !exists(filepath.Join(dir, base+ext)) {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%03d", base, i)
		if !exists(filepath.Join(dir, candidate+ext)) {
			return candidate
		}
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// niftiStem strips the .nii.gz (or .nii) extension.
func niftiStem(name string) string {
	name = filepath.Base(name)
	for _, ext := range []string{".nii.gz", ".nii"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// listNifti returns the compressed NIfTI volumes directly inside dir. A
// missing dir yields no volumes.
func listNifti(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.nii.gz"))
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	if err != nil {
		return err
	}
	return out.Close()
}
