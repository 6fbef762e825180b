package pptxunlock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLoadDirRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := readBack(t, protectedPPTX(t))
	require.NoError(t, in.Extract(dir))

	assert.DirExists(t, filepath.Join(dir, "ppt"))
	b, err := os.ReadFile(filepath.Join(dir, "ppt", "presentation.xml"))
	require.NoError(t, err)
	assert.Equal(t, protectedXML, string(b))

	info, err := os.Stat(filepath.Join(dir, "ppt", "slides", "slide1.xml"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(fixtureTime))

	out, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		contentTypesEntry,
		"ppt/media/image1.png",
		"ppt/presentation.xml",
		"ppt/slides/slide1.xml",
	}, out.Names())
	for _, e := range out.Entries {
		orig, ok := in.Lookup(e.Name)
		require.True(t, ok, e.Name)
		assert.Equal(t, orig.Data, e.Data, e.Name)
	}

	// The loaded package is a valid input for Patch.
	res, err := Patch(packageBytes(t, out))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)
}

func TestExtract_RejectsEscapingNames(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "out")

	for _, name := range []string{"../evil.xml", "/abs.xml", `ppt\..\..\evil.xml`, "C:/evil.xml"} {
		p := &Package{Entries: []Entry{{Name: name, Data: []byte("x")}}}
		err := p.Extract(dir)
		assert.ErrorIs(t, err, ErrInvalidArchive, name)
	}
	assert.NoFileExists(t, filepath.Join(root, "evil.xml"))
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
