package client

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/otiai10/gosseract/v2"
)

// TesseractClient wraps local Tesseract OCR, used as the fallback text
// source for scanned statements that carry no embedded PDF text.
type TesseractClient struct {
	dataPath string
}

func NewTesseractClient(dataPath string) *TesseractClient {
	return &TesseractClient{dataPath: dataPath}
}

// ExtractTextFromImage runs OCR over one page image and returns the text
// together with the mean word confidence (0-100).
func (tc *TesseractClient) ExtractTextFromImage(img image.Image) (string, float64, error) {
	tempFile, err := saveTempImage(img)
	if err != nil {
		return "", 0, err
	}
	defer os.Remove(tempFile)

	return tc.extractTextAndQuality(tempFile)
}

func (tc *TesseractClient) extractTextAndQuality(filePath string) (string, float64, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if tc.dataPath != "" {
		client.SetTessdataPrefix(tc.dataPath)
	}
	if err := client.SetLanguage("eng"); err != nil {
		return "", 0, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImage(filePath); err != nil {
		return "", 0, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("failed to extract text: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// If bounding boxes fail, just return text and 0 confidence
		return text, 0, nil
	}

	var totalConf float64
	for _, box := range boxes {
		totalConf += box.Confidence
	}
	avgConf := 0.0
	if len(boxes) > 0 {
		avgConf = totalConf / float64(len(boxes))
	}
	return text, avgConf, nil
}

// saveTempImage saves an image.Image to a temporary PNG file.
func saveTempImage(img image.Image) (string, error) {
	tempFile, err := os.CreateTemp("", "ocr-page-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tempFile.Close()

	if err := png.Encode(tempFile, img); err != nil {
		os.Remove(tempFile.Name())
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return tempFile.Name(), nil
}
