package pdfext

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ivv-works/ivv-engine/pkg/apperrors"
)

func TestExtractTextEmptyDocument(t *testing.T) {
	_, err := ExtractText(nil)
	assert.ErrorIs(t, err, apperrors.ErrExtraction)

	_, err = ExtractText([]byte{})
	assert.ErrorIs(t, err, apperrors.ErrExtraction)
}

func TestExtractTextUnreadableDocument(t *testing.T) {
	_, err := ExtractText([]byte("this is plain text, not a PDF"))
	assert.ErrorIs(t, err, apperrors.ErrExtraction)

	// A truncated header is not a readable document either.
	_, err = ExtractText([]byte("%PDF-1.7\ngarbage"))
	assert.ErrorIs(t, err, apperrors.ErrExtraction)
}

func TestExtractTextOversizedDocument(t *testing.T) {
	_, err := ExtractText(bytes.Repeat([]byte{0x25}, MaxDocumentBytes+1))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
