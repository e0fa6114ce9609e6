//go:build !unix

package fs

import "path/filepath"

func fixpath(name string) string {
	return filepath.Clean(name)
}
