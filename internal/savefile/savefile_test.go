package savefile_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pellucid-systems/goboy/internal/savefile"
)

func TestWriteThenLoadLatestRoundTrips(t *testing.T) {
	root := t.TempDir()

	_, err := savefile.Write(root, "TESTROM", []byte{1, 2, 3})
	require.NoError(t, err)

	path2, err := savefile.Write(root, "TESTROM", []byte{4, 5, 6})
	require.NoError(t, err)
	_ = path2

	blob, err := savefile.LoadLatest(root, "TESTROM")
	require.NoError(t, err)
	require.NotNil(t, blob)
}

func TestLoadLatestWithNoSavesReturnsNil(t *testing.T) {
	root := t.TempDir()

	blob, err := savefile.LoadLatest(root, "NEVERSAVED")
	require.NoError(t, err)
	require.Nil(t, blob)
}

func TestListIncludesWrittenSave(t *testing.T) {
	root := t.TempDir()

	p1, err := savefile.Write(root, "ORDERED", []byte{1})
	require.NoError(t, err)

	paths, err := savefile.List(root, "ORDERED")
	require.NoError(t, err)
	require.Contains(t, paths, p1)
}

func TestSanitizeAvoidsPathSeparators(t *testing.T) {
	root := t.TempDir()

	_, err := savefile.Write(root, "Weird/Title:Name", []byte{9})
	require.NoError(t, err)

	blob, err := savefile.LoadLatest(root, "Weird/Title:Name")
	require.NoError(t, err)
	require.Equal(t, []byte{9}, blob)
}
