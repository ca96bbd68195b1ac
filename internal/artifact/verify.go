package artifact

import (
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// VerifyPDF checks that r holds a readable PDF and returns its page count
func VerifyPDF(r io.ReaderAt, size int64) (pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = 0, fmt.Errorf("malformed PDF: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	pages = reader.NumPage()
	if pages < 1 {
		return 0, fmt.Errorf("PDF has no pages")
	}
	return pages, nil
}
