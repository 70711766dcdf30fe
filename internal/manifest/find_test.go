package manifest

import (
	"io/fs"
	"testing"

	"github.com/jakoblorz/go-nodedist/internal/filesystem"
	"github.com/stretchr/testify/require"
)

func TestFindRoot(t *testing.T) {
	mfs := filesystem.NewMockFileSystem()
	mfs.AddFile("/repo/package.json", []byte(`{"name": "outer"}`))
	mfs.AddFile("/repo/packages/app/package.json", []byte(`{"name": "app"}`))
	mfs.AddDir("/repo/packages/app/src/lib")
	mfs.AddDir("/elsewhere")

	tests := []struct {
		start string
		want  string
	}{
		{start: "/repo/packages/app", want: "/repo/packages/app"},
		{start: "/repo/packages/app/src/lib", want: "/repo/packages/app"},
		{start: "/repo/packages", want: "/repo"},
	}
	for _, tt := range tests {
		t.Run(tt.start, func(t *testing.T) {
			root, err := FindRoot(mfs, tt.start)
			require.NoError(t, err)
			require.Equal(t, tt.want, root)
		})
	}

	_, err := FindRoot(mfs, "/elsewhere")
	require.ErrorIs(t, err, fs.ErrNotExist)
}
