package imaging

import (
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// testProcessor builds a processor without the face cascade; document
// location and upload handling never touch it.
func testProcessor() *imaging {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &imaging{log: logger}
}

// syntheticFrame renders a bright card on a dark background and encodes it,
// so the full decode-and-locate path runs against a known layout.
func syntheticFrame(t *testing.T) []byte {
	t.Helper()

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 240, 320, gocv.MatTypeCV8UC3)
	defer img.Close()
	gocv.Rectangle(&img, image.Rect(80, 60, 240, 180), color.RGBA{R: 255, G: 255, B: 255}, -1)

	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	require.NoError(t, err)
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out
}

func TestLocateDocumentEmptyInput(t *testing.T) {
	proc := testProcessor()

	_, err := proc.LocateDocument(nil)
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestLocateDocumentUndecodableInput(t *testing.T) {
	proc := testProcessor()

	_, err := proc.LocateDocument([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUndecodableImage)
}

func TestLocateDocumentSyntheticFrame(t *testing.T) {
	proc := testProcessor()

	rect, err := proc.LocateDocument(syntheticFrame(t))
	require.NoError(t, err)
	assert.Positive(t, rect.Dx())
	assert.Positive(t, rect.Dy())
	assert.True(t, rect.In(image.Rect(0, 0, 320, 240)), "located region must stay inside the frame")
}

func TestExtractDocumentWritesRegionCrop(t *testing.T) {
	proc := testProcessor()
	workDir := t.TempDir()

	region, err := proc.ExtractDocument(syntheticFrame(t), workDir)
	require.NoError(t, err)
	require.NotNil(t, region)

	assert.Equal(t, filepath.Join(workDir, DocumentRegionFile), region.Path)
	info, err := os.Stat(region.Path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	assert.Positive(t, region.Bounds.Dx())
}

func TestSaveUpload(t *testing.T) {
	proc := testProcessor()
	workDir := t.TempDir()

	path, err := proc.SaveUpload(syntheticFrame(t), workDir, "live_face.jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workDir, "live_face.jpg"), path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = proc.SaveUpload(nil, workDir, "live_face.jpg")
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestExpandRect(t *testing.T) {
	// A box in the middle of a large image grows by half its size, centered.
	r := expandRect(image.Rect(100, 100, 200, 200), 1000, 1000)
	assert.Equal(t, image.Rect(75, 75, 225, 225), r)

	// Clamped at the origin.
	r = expandRect(image.Rect(0, 0, 100, 100), 1000, 1000)
	assert.Equal(t, image.Rect(0, 0, 150, 150), r)

	// Clamped at the far edges.
	r = expandRect(image.Rect(900, 900, 1000, 1000), 1000, 1000)
	assert.Equal(t, 1000, r.Max.X)
	assert.Equal(t, 1000, r.Max.Y)
	assert.True(t, r.In(image.Rect(0, 0, 1000, 1000)))
}
