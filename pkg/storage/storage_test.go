package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(&body, writer.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["image"][0]
}

func TestSaveImageAndDelete(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	rel, err := store.SaveImage(CourseImagesDir, fileHeader(t, "cover.png", pngBytes(t)))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rel, "courseImages/"))
	assert.True(t, strings.HasSuffix(rel, ".png"))
	assert.True(t, store.Exists(rel))

	files, err := store.List(CourseImagesDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, rel, files[0].Path)

	require.NoError(t, store.Delete(rel))
	assert.False(t, store.Exists(rel))
	assert.NoError(t, store.Delete(rel), "deleting a missing file is not an error")
}

func TestValidateImageRejectsNonImages(t *testing.T) {
	_, err := ValidateImage(fileHeader(t, "cover.png", []byte("%PDF-1.4 definitely not a png")))
	assert.ErrorIs(t, err, ErrImageType)
}

func TestValidateImageRejectsLargeFiles(t *testing.T) {
	header := fileHeader(t, "cover.png", pngBytes(t))
	header.Size = MaxImageBytes + 1

	_, err := ValidateImage(header)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestResolveStaysInsideRoot(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	full, err := store.resolve("../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(full, store.Root()))

	_, err = store.resolve("..")
	assert.ErrorIs(t, err, ErrInvalidPath)
}
