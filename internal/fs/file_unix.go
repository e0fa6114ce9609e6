//go:build unix

package fs

func fixpath(name string) string {
	return name
}
