package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	"github.com/akolanti/ChatDocs/internal/domain/errorModel"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

const pageExtractTimeout = 10 * time.Second

// ExtractPDF returns one page per PDF page with 1-based numbers. Pages that fail to parse are
// logged and skipped; an unparseable file is unreadable.
func ExtractPDF(data []byte) (pages []commonModels.Page, err error) {
	logger := logger_i.NewLogger("pdf_extraction")
	defer func() {
		// malformed xref tables make the parser panic
		if r := recover(); r != nil {
			logger.Error("pdf parser panicked", "panic", r)
			pages, err = nil, errorModel.Unreadable(fmt.Errorf("pdf parser: %v", r))
		}
	}()

	f, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		logger.Error("failed opening of pdf file", "error", err)
		return nil, errorModel.Unreadable(err)
	}

	numPages := f.NumPage()
	logger.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			logger.Warn("Error parsing page content", "page", i, "error", err)
			continue
		}
		pages = append(pages, commonModels.Page{Number: i, Text: content})
	}
	return pages, nil
}

// ExtractDOCX reads .docx (and .odt/.rtf/plain text) bytes. The format has no pages, so everything is page 0.
func ExtractDOCX(data []byte) ([]commonModels.Page, error) {
	text, err := cat.FromBytes(data)
	if err != nil {
		logger_i.NewLogger("docx_extraction").Error("Error extracting content from doc", "error", err)
		return nil, errorModel.Unreadable(err)
	}
	return []commonModels.Page{{Number: 0, Text: text}}, nil
}

func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{err: fmt.Errorf("page parser: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(pageExtractTimeout):
		return "", errors.New("page extraction timeout")
	}
}
