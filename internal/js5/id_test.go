package js5

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArchiveID(t *testing.T) {
	var tests = []struct {
		in   string
		want ArchiveID
		err  bool
	}{
		{"0", 0, false},
		{"17", 17, false},
		{"255", MetaArchive, false},
		{"meta", MetaArchive, false},
		{"256", 0, true},
		{"-1", 0, true},
		{"idx2", 0, true},
	}

	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			id, err := ParseArchiveID(test.in)
			if test.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.want, id)
		})
	}
}

func TestFileNames(t *testing.T) {
	require.Equal(t, "main_file_cache.dat2", DataFileName)
	require.Equal(t, "main_file_cache.idx0", IndexFileName(0))
	require.Equal(t, "main_file_cache.idx255", IndexFileName(MetaArchive))
	require.Equal(t, "meta", MetaArchive.String())
	require.Equal(t, "<3/42>", Handle{Archive: 3, Container: 42}.String())
}
