package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"os"
	"sort"
)

// Create writes files as a gzip-compressed tarball at path. Entries are
// written in sorted name order so the output is deterministic.
func Create(path string, files map[string]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close archive: %w", cerr)
		}
	}()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		body := files[n]
		hdr := &tar.Header{
			Name:     n,
			Mode:     0o644,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write header %s: %w", n, err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			return fmt.Errorf("write body %s: %w", n, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip: %w", err)
	}
	return nil
}
