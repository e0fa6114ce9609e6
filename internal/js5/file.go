package js5

import "fmt"

const fileBaseName = "main_file_cache"

// DataFileName is the name of the shared sector file.
const DataFileName = fileBaseName + ".dat2"

// IndexFileName returns the name of the index file for archive a.
func IndexFileName(a ArchiveID) string {
	return fmt.Sprintf("%s.idx%d", fileBaseName, a)
}
