package imageio

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
	path := filepath.Join(dir, "red.png")
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestLoadDownscales(t *testing.T) {
	path := writePNG(t, t.TempDir(), 400, 200)

	img, err := Load(path, 100)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MIMEType)
	assert.Equal(t, path, img.Path)

	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dx())
	assert.Equal(t, 50, decoded.Bounds().Dy())
}

func TestLoadKeepsSmallImages(t *testing.T) {
	path := writePNG(t, t.TempDir(), 40, 30)

	img, err := Load(path, 100)
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, 40, decoded.Bounds().Dx())
	assert.Equal(t, 30, decoded.Bounds().Dy())
}

func TestLoadUndecodablePassesThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.webp")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0644))

	img, err := Load(path, 100)
	require.NoError(t, err)
	assert.Equal(t, []byte("not an image"), img.Data)
	assert.Equal(t, "image/webp", img.MIMEType)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.jpg"), 0)
	assert.Error(t, err)
}

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, "image/jpeg", DetectMIME("a.JPG"))
	assert.Equal(t, "image/jpeg", DetectMIME("a.jpeg"))
	assert.Equal(t, "image/png", DetectMIME("a.png"))
	assert.Equal(t, "image/gif", DetectMIME("a.gif"))
	assert.Equal(t, "application/octet-stream", DetectMIME("a.txt"))
}
