package imaging

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var (
	ErrEmptyImage       = errors.New("no image data supplied")
	ErrUndecodableImage = errors.New("image data could not be decoded")
	ErrNoDocumentRegion = errors.New("no document region found")
	ErrNoFaceFound      = errors.New("no face found in document region")
)

const (
	DocumentRegionFile = "document_region.jpg"
	DocumentFaceFile   = "document_face.jpg"
)

// DocumentRegion is the cropped sub-image estimated to contain the ID card,
// written to a per-invocation workspace so concurrent runs never alias paths.
type DocumentRegion struct {
	Path   string
	Bounds image.Rectangle
}

type IImaging interface {
	LocateDocument(buf []byte) (image.Rectangle, error)
	ExtractDocument(buf []byte, workDir string) (*DocumentRegion, error)
	ExtractFace(documentPath string, workDir string) (string, error)
	SaveUpload(buf []byte, workDir string, name string) (string, error)
}

type imaging struct {
	log         *logrus.Logger
	cascadePath string

	mu      sync.Mutex
	cascade gocv.CascadeClassifier
}

func New(log *logrus.Logger, cascadePath string) (IImaging, error) {
	cascade := gocv.NewCascadeClassifier()
	if !cascade.Load(cascadePath) {
		cascade.Close()
		return nil, fmt.Errorf("failed to load face cascade from %s", cascadePath)
	}

	return &imaging{
		log:         log,
		cascadePath: cascadePath,
		cascade:     cascade,
	}, nil
}

func (i *imaging) decode(buf []byte) (gocv.Mat, error) {
	if len(buf) == 0 {
		return gocv.Mat{}, ErrEmptyImage
	}

	img, err := gocv.IMDecode(buf, gocv.IMReadColor)
	if err != nil || img.Empty() {
		i.log.WithFields(logrus.Fields{
			"bytes": len(buf),
		}).Warn("Uploaded image could not be decoded")
		return gocv.Mat{}, ErrUndecodableImage
	}

	return img, nil
}

// locate finds the axis-aligned bounding box of the largest external contour
// after grayscale, Gaussian blur and adaptive mean thresholding. Ties on the
// maximum area resolve to whichever contour is seen first.
func (i *imaging) locate(img gocv.Mat) (image.Rectangle, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.AdaptiveThreshold(blurred, &thresh, 255, gocv.AdaptiveThresholdMean, gocv.ThresholdBinary, 11, 2)

	contours := gocv.FindContours(thresh, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return image.Rectangle{}, ErrNoDocumentRegion
	}

	largestIdx := 0
	largestArea := 0.0
	for idx := 0; idx < contours.Size(); idx++ {
		area := gocv.ContourArea(contours.At(idx))
		if area > largestArea {
			largestArea = area
			largestIdx = idx
		}
	}

	rect := gocv.BoundingRect(contours.At(largestIdx))
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return image.Rectangle{}, ErrNoDocumentRegion
	}

	return rect, nil
}

func (i *imaging) LocateDocument(buf []byte) (rect image.Rectangle, err error) {
	defer recoverToError(&err)

	img, err := i.decode(buf)
	if err != nil {
		return image.Rectangle{}, err
	}
	defer img.Close()

	return i.locate(img)
}

func (i *imaging) ExtractDocument(buf []byte, workDir string) (region *DocumentRegion, err error) {
	defer recoverToError(&err)

	img, err := i.decode(buf)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	rect, err := i.locate(img)
	if err != nil {
		return nil, err
	}

	i.log.WithFields(logrus.Fields{
		"x": rect.Min.X,
		"y": rect.Min.Y,
		"w": rect.Dx(),
		"h": rect.Dy(),
	}).Info("Largest contour for document region found")

	crop := img.Region(rect)
	defer crop.Close()

	path, err := writeImage(crop, workDir, DocumentRegionFile)
	if err != nil {
		return nil, err
	}

	return &DocumentRegion{Path: path, Bounds: rect}, nil
}

// ExtractFace runs the Haar cascade over the document crop, picks the largest
// box, expands it by half its width and height clamped to the crop bounds, and
// writes the expanded crop next to the document region.
func (i *imaging) ExtractFace(documentPath string, workDir string) (path string, err error) {
	defer recoverToError(&err)

	img := gocv.IMRead(documentPath, gocv.IMReadColor)
	if img.Empty() {
		return "", ErrUndecodableImage
	}
	defer img.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	i.mu.Lock()
	faces := i.cascade.DetectMultiScaleWithParams(gray, 1.1, 5, 0, image.Pt(0, 0), image.Pt(0, 0))
	i.mu.Unlock()

	i.log.WithFields(logrus.Fields{
		"faces": len(faces),
	}).Info("Face detection on document region completed")

	if len(faces) == 0 {
		return "", ErrNoFaceFound
	}

	largest := faces[0]
	for _, f := range faces[1:] {
		if f.Dx()*f.Dy() > largest.Dx()*largest.Dy() {
			largest = f
		}
	}

	expanded := expandRect(largest, img.Cols(), img.Rows())

	crop := img.Region(expanded)
	defer crop.Close()

	return writeImage(crop, workDir, DocumentFaceFile)
}

// SaveUpload validates that the uploaded bytes decode and persists them into
// the invocation workspace for the biometric comparator.
func (i *imaging) SaveUpload(buf []byte, workDir string, name string) (path string, err error) {
	defer recoverToError(&err)

	img, err := i.decode(buf)
	if err != nil {
		return "", err
	}
	defer img.Close()

	return writeImage(img, workDir, name)
}

// expandRect grows the detector box by 50% of its width and height around the
// center, clipped to the parent image so the crop never indexes out of range.
func expandRect(r image.Rectangle, maxW, maxH int) image.Rectangle {
	w := r.Dx()
	h := r.Dy()
	newW := w + w/2
	newH := h + h/2

	x := r.Min.X - (newW-w)/2
	y := r.Min.Y - (newH-h)/2
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}

	x2 := x + newW
	y2 := y + newH
	if x2 > maxW {
		x2 = maxW
	}
	if y2 > maxH {
		y2 = maxH
	}

	return image.Rect(x, y, x2, y2)
}

func writeImage(img gocv.Mat, workDir string, name string) (string, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(workDir, name)
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return "", err
		}
	}

	if ok := gocv.IMWrite(path, img); !ok {
		return "", fmt.Errorf("failed to write image to %s", path)
	}

	return path, nil
}

func recoverToError(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("image processing failure: %v", r)
	}
}
