package extract

import (
	"errors"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/dslipak/pdf"
	"github.com/kbchat/kbchat/internal/domain/docModel"
	"github.com/lu4p/cat"
)

func extractPDF(path string) ([]docModel.Segment, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var segments []docModel.Segment
	numPages := f.NumPage()
	logger.Debug("extractPDF", "path", path, "pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// a single bad page doesn't sink the document
			logger.Error("Error parsing page content", "page", i, "error", err)
			continue
		}

		segments = append(segments, docModel.Segment{
			Page:    i,
			Content: content,
		})
	}
	if len(segments) == 0 && numPages > 0 {
		return nil, errors.New("no extractable text in pdf")
	}
	return segments, nil
}

// extractWithCat covers the docx/odt/rtf family. cat gives us the whole
// document as one string, so it lands in a single segment.
func extractWithCat(path string) ([]docModel.Segment, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract document: %w", err)
	}
	return []docModel.Segment{
		{Page: 1, Content: text},
	}, nil
}

func extractPlainText(path string) ([]docModel.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, errors.New("text file is not valid utf-8")
	}
	return []docModel.Segment{
		{Page: 1, Content: string(data)},
	}, nil
}

// protectExtract guards against pdf pages whose content streams hang the
// parser.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(10 * time.Second):
		return "", errors.New("page extraction timeout")
	}
}
