// Package pdfext extracts plain text from uploaded PDF documents.
package pdfext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
)

// MaxDocumentBytes bounds how large an uploaded document may be.
const MaxDocumentBytes = 25 << 20 // 25 MiB

// ExtractText pulls the plain text out of a PDF document. Scanned or
// image-only documents yield no text and are reported as extraction failures
// rather than being passed on as empty input downstream.
func ExtractText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty document", apperrors.ErrExtraction)
	}
	if len(data) > MaxDocumentBytes {
		return "", fmt.Errorf("%w: document exceeds %d bytes", apperrors.ErrValidation, MaxDocumentBytes)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrExtraction, err)
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page does not invalidate the document.
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: document contains no extractable text", apperrors.ErrExtraction)
	}

	return text, nil
}
