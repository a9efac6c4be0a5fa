package biometric

import (
	"io"
	"testing"

	"github.com/Kagami/go-face"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func testMatcher() *matcher {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &matcher{log: logger}
}

func TestCompareMissingFilesFailsClosed(t *testing.T) {
	m := testMatcher()

	assert.False(t, m.Compare("does-not-exist-a.jpg", "does-not-exist-b.jpg"))
	assert.False(t, m.Compare("does-not-exist-a.jpg", "does-not-exist-a.jpg"),
		"even identical missing paths must not verify")
}

func TestEmbedMissingFile(t *testing.T) {
	m := testMatcher()

	assert.Nil(t, m.Embed("does-not-exist.jpg"))
}

func TestCloseWithoutRecognizer(t *testing.T) {
	m := testMatcher()

	assert.NotPanics(t, func() { m.Close() })
}

func TestEuclideanDistance(t *testing.T) {
	var a, b face.Descriptor

	assert.Zero(t, euclideanDistance(a, b))

	b[0] = 3
	b[1] = 4
	assert.InDelta(t, 5.0, euclideanDistance(a, b), 1e-9)

	assert.Greater(t, euclideanDistance(a, b), sameFaceDistance,
		"descriptors this far apart must not count as the same person")
}
