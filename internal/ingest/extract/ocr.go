package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// OCRConfig drives the scanned-PDF fallback: pdftoppm (Poppler) rasterizes
// pages, tesseract reads them. Both binaries are shelled out to; nothing is
// linked in.
type OCRConfig struct {
	PdftoppmBin  string
	TesseractBin string
	Langs        string
	DPI          int
	PageTimeout  time.Duration
}

// DefaultOCR expects both tools on PATH and reads mixed Vietnamese/English
// exam papers at 300 DPI.
func DefaultOCR() OCRConfig {
	return OCRConfig{
		PdftoppmBin:  "pdftoppm",
		TesseractBin: "tesseract",
		Langs:        "eng+vie",
		DPI:          300,
		PageTimeout:  60 * time.Second,
	}
}

// PDFText rasterizes every page and OCRs them in order. A page that fails
// OCR contributes an empty string; only a failure to rasterize at all is an
// error.
func (c OCRConfig) PDFText(data []byte) (string, error) {
	if _, err := exec.LookPath(c.PdftoppmBin); err != nil {
		return "", fmt.Errorf("%s not found in PATH", c.PdftoppmBin)
	}
	if _, err := exec.LookPath(c.TesseractBin); err != nil {
		return "", fmt.Errorf("%s not found in PATH", c.TesseractBin)
	}

	tmpDir, err := os.MkdirTemp("", "qbank-ocr-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return "", err
	}

	dpi := c.DPI
	if dpi <= 0 {
		dpi = 300
	}
	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.Command(c.PdftoppmBin, "-png", "-r", fmt.Sprint(dpi), pdfPath, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftoppm: %s", strings.TrimSpace(stderr.String()))
	}

	pageFiles, err := filepath.Glob(prefix + "-*.png")
	if err != nil || len(pageFiles) == 0 {
		return "", errors.New("pdftoppm produced no pages")
	}
	sort.Strings(pageFiles)

	var out strings.Builder
	for _, pf := range pageFiles {
		text := c.ocrPage(pf)
		out.WriteString(strings.TrimSpace(text))
		out.WriteString("\n\n")
	}
	return out.String(), nil
}

func (c OCRConfig) ocrPage(imgPath string) string {
	ctx := context.Background()
	if c.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PageTimeout)
		defer cancel()
	}
	args := []string{imgPath, "stdout"}
	if c.Langs != "" {
		args = append(args, "-l", c.Langs)
	}
	cmd := exec.CommandContext(ctx, c.TesseractBin, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return ""
	}
	return out.String()
}
