package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// UnsupportedFormat is returned as text, not as an error, for files that are neither PDF nor DOCX.
const UnsupportedFormat = "Unsupported file format."

const (
	extPDF  = ".pdf"
	extDOCX = ".docx"
)

var (
	ErrEmptyFile = errors.New("empty file")
	ErrPDF       = errors.New("pdf extraction failed")
	ErrDOCX      = errors.New("docx extraction failed")
)

var wordNamespaces = map[string]bool{
	"http://schemas.openxmlformats.org/wordprocessingml/2006/main": true,
	"http://purl.oclc.org/ooxml/wordprocessingml/main":             true,
}

// IsSupported reports whether fileName has an extension ExtractFile can read.
func IsSupported(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case extPDF, extDOCX:
		return true
	default:
		return false
	}
}

// ExtractFile reads the file at path and returns its plain text.
// Libraries used: github.com/ledongthuc/pdf (PDF) and github.com/nguyenthenguyen/docx (DOCX).
func ExtractFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !IsSupported(path) {
		return UnsupportedFormat, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("extract file %s: %w", path, err)
	}
	return ExtractBytes(ctx, filepath.Base(path), data)
}

// ExtractBytes extracts text from an in-memory upload, dispatching on the extension of fileName.
func ExtractBytes(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext != extPDF && ext != extDOCX {
		return UnsupportedFormat, nil
	}
	if len(data) == 0 {
		return "", fmt.Errorf("extract %s: %w", fileName, ErrEmptyFile)
	}

	var (
		text string
		err  error
	)
	if ext == extPDF {
		text, err = extractPDF(data)
	} else {
		text, err = extractDOCX(data)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", fileName, err)
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPDF, err)
	}

	var buf strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		// Font names are page-scoped, so each page resolves its own.
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrPDF, i, err)
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDOCX, err)
	}
	defer doc.Close()

	paragraphs, err := bodyParagraphs(doc.Editable().GetContent())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDOCX, err)
	}
	return strings.Join(paragraphs, "\n"), nil
}

// bodyParagraphs returns the text of every w:p that is a direct child of w:body, in order.
// Table cells, text boxes and drawings are not part of that sequence.
func bodyParagraphs(documentXML string) ([]string, error) {
	dec := xml.NewDecoder(strings.NewReader(documentXML))

	var (
		paragraphs []string
		current    strings.Builder
		stack      []xml.Name
		bodyDepth  = -1
		paraDepth  = -1
		skipDepth  = -1
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			parent := xml.Name{}
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			stack = append(stack, t.Name)
			depth := len(stack)

			switch {
			case !isWord(t.Name):
			case bodyDepth < 0:
				if t.Name.Local == "body" {
					bodyDepth = depth
				}
			case paraDepth < 0:
				if depth == bodyDepth+1 && t.Name.Local == "p" {
					paraDepth = depth
					current.Reset()
				}
			case skipDepth >= 0:
			case t.Name.Local == "txbxContent":
				skipDepth = depth
			case isWord(parent) && parent.Local == "r":
				writeRunElement(&current, t, &inText)
			}

		case xml.EndElement:
			depth := len(stack)
			switch depth {
			case skipDepth:
				skipDepth = -1
			case paraDepth:
				paragraphs = append(paragraphs, current.String())
				paraDepth = -1
			case bodyDepth:
				bodyDepth = -1
			}
			inText = false
			if depth > 0 {
				stack = stack[:depth-1]
			}

		case xml.CharData:
			if inText && paraDepth >= 0 && skipDepth < 0 {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}

func writeRunElement(b *strings.Builder, el xml.StartElement, inText *bool) {
	switch el.Name.Local {
	case "t":
		*inText = true
	case "tab", "ptab":
		b.WriteByte('\t')
	case "cr":
		b.WriteByte('\n')
	case "br":
		// Page and column breaks do not produce a line.
		kind := attr(el, "type")
		if kind == "" || kind == "textWrapping" {
			b.WriteByte('\n')
		}
	case "noBreakHyphen":
		b.WriteByte('-')
	}
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func isWord(name xml.Name) bool {
	return wordNamespaces[name.Space]
}
