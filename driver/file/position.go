package file

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// PosOption positions the cursor before a Read or Write.
type PosOption func(*position)

type position struct {
	offset *int64
	whence *int
}

// Offset moves the cursor to off before the operation. Without Whence the
// offset is taken from the start of the file.
func Offset(off int64) PosOption {
	return func(p *position) {
		p.offset = &off
	}
}

// Whence sets the origin for Offset: io.SeekStart, io.SeekCurrent or
// io.SeekEnd. It is an error to give a whence without an offset.
func Whence(whence int) PosOption {
	return func(p *position) {
		p.whence = &whence
	}
}

func newPosition(opts []PosOption) (position, error) {
	var p position
	for _, opt := range opts {
		opt(&p)
	}
	if p.whence != nil {
		if p.offset == nil {
			return p, errors.New("can not seek without an offset")
		}
		switch *p.whence {
		case io.SeekStart, io.SeekCurrent, io.SeekEnd:
		default:
			return p, fmt.Errorf("invalid whence %d", *p.whence)
		}
	}
	return p, nil
}

// seek applies the position. No offset leaves the cursor where it is.
func (p position) seek(f *os.File) error {
	if p.offset == nil {
		return nil
	}
	whence := io.SeekStart
	if p.whence != nil {
		whence = *p.whence
	}
	_, err := f.Seek(*p.offset, whence)
	return err
}
