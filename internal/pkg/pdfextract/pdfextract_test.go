package pdfextract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF("report.PDF"))
	assert.True(t, IsPDF("dir/a.pdf"))
	assert.False(t, IsPDF("notes.docx"))
	assert.False(t, IsPDF("pdf"))
}

func TestPageCountEmptyAndInvalid(t *testing.T) {
	n, err := PageCount(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Zero(t, n)

	_, err = PageCount(strings.NewReader("not a pdf at all"))
	assert.Error(t, err)
}
