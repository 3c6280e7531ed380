package util

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// minimum amount of text a resume must yield to be worth improving
const minExtractedChars = 100

// ExtractText pulls plain text out of an uploaded resume. ext must be
// ".pdf" or ".docx" (the only types the upload gate admits).
func ExtractText(path string, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return ExtractPDFText(path)
	case ".docx":
		return ExtractDocxText(path)
	default:
		return "", fmt.Errorf("unsupported file extension %q", ext)
	}
}

// ExtractPDFText extracts text from a PDF page by page.
func ExtractPDFText(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var fullText strings.Builder
	var lastErr error

	for n := 0; n < doc.NumPage(); n++ {
		pageText, err := doc.Text(n)
		if err != nil {
			lastErr = fmt.Errorf("page %d: failed to extract text: %w", n+1, err)
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if len(pageText) > 0 {
			fullText.WriteString(pageText)
			fullText.WriteString("\n\n")
		}
	}

	return finishExtract(fullText.String(), lastErr)
}

// ExtractDocxText extracts text from a DOCX file. A DOCX is a zip archive;
// the body lives in word/document.xml as WordprocessingML, where every
// visible run is a <w:t> element and paragraphs are <w:p>.
func ExtractDocxText(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %w", err)
	}
	defer zr.Close()

	var docXML *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docXML = f
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("invalid DOCX: word/document.xml missing")
	}

	rc, err := docXML.Open()
	if err != nil {
		return "", fmt.Errorf("failed to read document body: %w", err)
	}
	defer rc.Close()

	var fullText strings.Builder
	dec := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				fullText.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				fullText.Write(t)
			}
		}
	}

	return finishExtract(fullText.String(), nil)
}

func finishExtract(text string, lastErr error) (string, error) {
	result := strings.TrimSpace(text)
	if len(result) == 0 {
		if lastErr != nil {
			return "", fmt.Errorf("failed to extract text: %w", lastErr)
		}
		return "", fmt.Errorf("no text extracted (document might be empty or image-only)")
	}
	if len(result) < minExtractedChars {
		return "", fmt.Errorf("content too short for meaningful improvement")
	}
	return result, nil
}
