package fs

import (
	"io"
	"os"
)

// File is a random access file as used by the sector and index files.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer

	Fd() uintptr
	Sync() error
}

var _ File = (*os.File)(nil)
