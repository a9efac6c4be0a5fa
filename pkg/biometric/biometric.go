package biometric

import (
	"math"
	"os"

	"github.com/Kagami/go-face"
	"github.com/sirupsen/logrus"
)

// Descriptors further apart than this are treated as different people. This is
// the conventional decision boundary for dlib's 128-d face descriptors.
const sameFaceDistance = 0.6

type IBiometric interface {
	Compare(pathA string, pathB string) bool
	Embed(path string) []float32
	Close()
}

type matcher struct {
	log *logrus.Logger
	rec *face.Recognizer
}

func New(log *logrus.Logger, modelsDir string) (IBiometric, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, err
	}

	return &matcher{
		log: log,
		rec: rec,
	}, nil
}

// Compare reports whether both images show the same person. It fails closed:
// a missing file, a recognizer error or an image without a detectable face
// all yield false, never an error, so an unverifiable face is never accepted.
func (m *matcher) Compare(pathA string, pathB string) (verified bool) {
	defer func() {
		if r := recover(); r != nil {
			m.log.WithFields(logrus.Fields{
				"panic": r,
			}).Error("Face comparison aborted, treating as not verified")
			verified = false
		}
	}()

	if !fileExists(pathA) || !fileExists(pathB) {
		m.log.WithFields(logrus.Fields{
			"path_a": pathA,
			"path_b": pathB,
		}).Warn("One or both face image paths do not exist")
		return false
	}

	faceA, err := m.rec.RecognizeSingleFile(pathA)
	if err != nil || faceA == nil {
		m.log.WithFields(logrus.Fields{
			"path":  pathA,
			"error": errString(err),
		}).Warn("Failed to recognize face in first image")
		return false
	}

	faceB, err := m.rec.RecognizeSingleFile(pathB)
	if err != nil || faceB == nil {
		m.log.WithFields(logrus.Fields{
			"path":  pathB,
			"error": errString(err),
		}).Warn("Failed to recognize face in second image")
		return false
	}

	distance := euclideanDistance(faceA.Descriptor, faceB.Descriptor)

	m.log.WithFields(logrus.Fields{
		"distance":  distance,
		"threshold": sameFaceDistance,
	}).Debug("Face descriptor distance computed")

	return distance <= sameFaceDistance
}

// Embed returns the 128-dimension descriptor for the face in the image, or
// nil when the path does not exist or the recognizer fails.
func (m *matcher) Embed(path string) (descriptor []float32) {
	defer func() {
		if r := recover(); r != nil {
			m.log.WithFields(logrus.Fields{
				"panic": r,
			}).Error("Embedding extraction aborted")
			descriptor = nil
		}
	}()

	if !fileExists(path) {
		m.log.WithFields(logrus.Fields{
			"path": path,
		}).Warn("Face image path does not exist")
		return nil
	}

	f, err := m.rec.RecognizeSingleFile(path)
	if err != nil || f == nil {
		m.log.WithFields(logrus.Fields{
			"path":  path,
			"error": errString(err),
		}).Warn("Failed to extract face embedding")
		return nil
	}

	out := make([]float32, len(f.Descriptor))
	copy(out, f.Descriptor[:])
	return out
}

func (m *matcher) Close() {
	if m.rec != nil {
		m.rec.Close()
	}
}

func euclideanDistance(a face.Descriptor, b face.Descriptor) float64 {
	var sum float64
	for idx := range a {
		d := float64(a[idx]) - float64(b[idx])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
