package merge

import (
	"fmt"
	"os"
	"path/filepath"
)

// MergeFile merges the pages of the PDF file inPath, n pages per output
// page, and writes the result to outPath.  An existing file at outPath is
// replaced.  Nothing is written unless the merge succeeds.
func MergeFile(inPath, outPath string, n int, opt *Options) (*Result, error) {
	if n <= 0 {
		return nil, groupSizeError(n)
	}

	src, err := os.ReadFile(inPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	res, err := Merge(src, n, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", inPath, err)
	}

	if err := writeFileAtomic(outPath, res.PDF); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return res, nil
}

// PageSizesFile returns the visible size of every page of a PDF file.
func PageSizesFile(path string, opt *Options) ([]Size, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	sizes, err := PageSizes(src, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sizes, nil
}

func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := f.Name()

	_, err = f.Write(data)
	if err == nil {
		err = f.Chmod(0644)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpName, path)
	}
	if err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
