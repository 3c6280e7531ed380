package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/devhub/cv-optimizer/internal/config"
	"github.com/devhub/cv-optimizer/internal/logger"
	"github.com/devhub/cv-optimizer/internal/model"
	"github.com/go-resty/resty/v2"
)

// DocumentServiceInterface builds the downloadable artifacts for a CV.
type DocumentServiceInterface interface {
	// Generate writes a DOCX (and, when the converter is reachable, a PDF)
	// for the given sections and returns the stored artifact paths/URLs.
	// A missing PDF is a partial success, never an error.
	Generate(ctx context.Context, cvID string, title string, sections []model.Section) (*GeneratedDocument, error)
}

type GeneratedDocument struct {
	DocxPath string
	DocxURL  string
	PDFPath  *string
	PDFURL   *string
}

type DocumentService struct {
	artifactDir  string
	publicURL    string
	converterURL string
	rest         *resty.Client
}

func NewDocumentService() *DocumentService {
	storage := config.LoadStorageConfig()
	return NewDocumentServiceWith(storage.ArtifactDir, storage.PublicURL, storage.ConverterURL)
}

// NewDocumentServiceWith skips the env-backed config, for callers (and
// tests) that already know where artifacts go.
func NewDocumentServiceWith(artifactDir, publicURL, converterURL string) *DocumentService {
	return &DocumentService{
		artifactDir:  artifactDir,
		publicURL:    strings.TrimRight(publicURL, "/"),
		converterURL: converterURL,
		rest:         resty.New(),
	}
}

func (s *DocumentService) Generate(ctx context.Context, cvID string, title string, sections []model.Section) (*GeneratedDocument, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("cannot generate a document without sections")
	}

	docxBytes, err := buildDocx(title, sections)
	if err != nil {
		return nil, fmt.Errorf("failed to build DOCX: %w", err)
	}

	if err := os.MkdirAll(s.artifactDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact dir: %w", err)
	}

	docxPath := filepath.Join(s.artifactDir, cvID+".docx")
	if err := os.WriteFile(docxPath, docxBytes, 0644); err != nil {
		return nil, fmt.Errorf("failed to store DOCX: %w", err)
	}

	doc := &GeneratedDocument{
		DocxPath: docxPath,
		DocxURL:  s.artifactURL(cvID, "docx"),
	}

	// PDF is best effort: converter down or unset means DOCX-only delivery.
	pdfBytes, err := s.convertToPDF(ctx, docxBytes)
	if err != nil {
		logger.L().Warn().Err(err).Str("cv_id", cvID).Msg("PDF conversion unavailable, delivering DOCX only")
		return doc, nil
	}

	pdfPath := filepath.Join(s.artifactDir, cvID+".pdf")
	if err := os.WriteFile(pdfPath, pdfBytes, 0644); err != nil {
		logger.L().Warn().Err(err).Str("cv_id", cvID).Msg("failed to store PDF, delivering DOCX only")
		return doc, nil
	}
	pdfURL := s.artifactURL(cvID, "pdf")
	doc.PDFPath = &pdfPath
	doc.PDFURL = &pdfURL
	return doc, nil
}

func (s *DocumentService) artifactURL(cvID, format string) string {
	base := s.publicURL
	if base == "" {
		base = strings.TrimRight(config.LoadAppConfig().BaseURL, "/")
	}
	return fmt.Sprintf("%s/cv/%s/download?format=%s", base, cvID, format)
}

func (s *DocumentService) convertToPDF(ctx context.Context, docx []byte) ([]byte, error) {
	if s.converterURL == "" {
		return nil, fmt.Errorf("PDF converter not configured")
	}

	resp, err := s.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document").
		SetBody(docx).
		Post(s.converterURL)
	if err != nil {
		return nil, fmt.Errorf("converter request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("converter returned status %d", resp.StatusCode())
	}
	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("converter returned empty body")
	}
	return body, nil
}

// A DOCX is a zip archive of fixed XML parts. The three parts below are the
// minimum a word processor needs: content types, the package relationship
// pointing at the document, and the document body itself.
const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

func buildDocx(title string, sections []model.Section) ([]byte, error) {
	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	writeHeading(&body, title)
	lastType := ""
	for _, sec := range sections {
		if sec.Type != lastType {
			writeHeading(&body, strings.ToUpper(sec.Type[:1])+sec.Type[1:])
			lastType = sec.Type
		}
		for _, line := range strings.Split(sec.EffectiveContent(), "\n") {
			writeParagraph(&body, line)
		}
	}

	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := map[string]string{
		"[Content_Types].xml": docxContentTypes,
		"_rels/.rels":         docxRels,
		"word/document.xml":   body.String(),
	}
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(parts[name])); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeHeading(b *strings.Builder, text string) {
	b.WriteString(`<w:p><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">`)
	xml.EscapeText(b, []byte(text))
	b.WriteString(`</w:t></w:r></w:p>`)
}

func writeParagraph(b *strings.Builder, text string) {
	b.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
	xml.EscapeText(b, []byte(text))
	b.WriteString(`</w:t></w:r></w:p>`)
}
