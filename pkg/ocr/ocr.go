package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/sirupsen/logrus"
)

// IOCR turns a document region image into raw text lines. The recognition
// engine itself is a black box behind this interface.
type IOCR interface {
	ExtractText(imagePath string) ([]string, error)
}

type tesseractEngine struct {
	log           *logrus.Logger
	languages     []string
	clientFactory func() *gosseract.Client
}

func New(log *logrus.Logger, languages []string) IOCR {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}

	return &tesseractEngine{
		log:           log,
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

func (e *tesseractEngine) ExtractText(imagePath string) ([]string, error) {
	client := e.clientFactory()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return nil, fmt.Errorf("set ocr languages: %w", err)
	}

	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("set ocr image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	lines := splitLines(text)

	e.log.WithFields(logrus.Fields{
		"image": imagePath,
		"lines": len(lines),
	}).Debug("OCR text extraction completed")

	return lines, nil
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
