package upload

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskUploader(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDiskUploader(dir, "http://localhost/files/", "secret")
	require.NoError(t, err)

	var progress []int
	res, err := d.Upload(context.Background(),
		File{Name: "Report Q1.PDF", Type: "application/pdf", Size: 11, Content: strings.NewReader("hello world")},
		Options{Folder: "survey-3", OnProgress: func(p int) { progress = append(progress, p) }},
	)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.PublicID, "survey-3_"))
	assert.Equal(t, "pdf", res.Format)
	assert.Equal(t, "Report Q1", res.OriginalFilename)
	assert.Equal(t, int64(11), res.Bytes)
	assert.Equal(t, "http://localhost/files/"+res.PublicID+".pdf", res.Location())
	assert.Equal(t, 100, progress[len(progress)-1])

	stored, err := os.ReadFile(filepath.Join(dir, res.PublicID+".pdf"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(stored))

	assert.ErrorIs(t, d.Delete(res.PublicID, "forged"), ErrInvalidDeleteToken)
	require.NoError(t, d.Delete(res.PublicID, res.DeleteToken))
	_, err = os.Stat(filepath.Join(dir, res.PublicID+".pdf"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, d.Delete(res.PublicID, res.DeleteToken), ErrFileNotFound)
	assert.ErrorIs(t, d.Delete("../etc/passwd", "x"), ErrFileNotFound)
}

func TestDiskUploaderUnknownSize(t *testing.T) {
	d, err := NewDiskUploader(t.TempDir(), "/files", "s")
	require.NoError(t, err)

	var progress []int
	res, err := d.Upload(context.Background(),
		File{Name: "noext", Content: strings.NewReader("abc")},
		Options{OnProgress: func(p int) { progress = append(progress, p) }},
	)
	require.NoError(t, err)
	assert.Equal(t, []int{100}, progress)
	assert.Equal(t, "", res.Format)
	assert.Equal(t, "/files/"+res.PublicID, res.URL)
}
