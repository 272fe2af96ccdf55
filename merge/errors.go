package merge

import (
	"errors"
	"fmt"

	pdfcpu "github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

var (
	// ErrInvalidArgument is returned for a group size that is not positive.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrParse is returned when the source is not a readable PDF document.
	ErrParse = errors.New("cannot parse PDF")

	// ErrWrongPassword is returned for encrypted documents which cannot be
	// opened with the given password. It also matches ErrParse.
	ErrWrongPassword = fmt.Errorf("%w: wrong password", ErrParse)

	// ErrIO is returned when a file cannot be read or written.
	ErrIO = errors.New("I/O error")
)

func parseError(err error) error {
	if errors.Is(err, pdfcpu.ErrWrongPassword) {
		return fmt.Errorf("%w (%v)", ErrWrongPassword, err)
	}
	return fmt.Errorf("%w: %w", ErrParse, err)
}

func groupSizeError(n int) error {
	return fmt.Errorf("%w: pages per sheet must be positive, got %d", ErrInvalidArgument, n)
}
