package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"parley/internal/domain"
)

const (
	tableWidth   = 9000
	cellWidth    = 4500
	headerFill   = "D7E4BC"
	borderColour = "000000"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

// DocumentTable renders a two-column bordered table: a shaded header row, then
// one row per pair with the translation right-aligned and right-to-left.
func DocumentTable(pairs []domain.Pair) ([]byte, error) {
	var body strings.Builder
	body.WriteString(`<w:tbl><w:tblPr>`)
	fmt.Fprintf(&body, `<w:tblW w:w="%d" w:type="dxa"/><w:tblBorders>`, tableWidth)
	for _, edge := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		fmt.Fprintf(&body, `<w:%s w:val="single" w:sz="1" w:space="0" w:color="%s"/>`, edge, borderColour)
	}
	body.WriteString(`</w:tblBorders></w:tblPr><w:tblGrid>`)
	fmt.Fprintf(&body, `<w:gridCol w:w="%d"/><w:gridCol w:w="%d"/></w:tblGrid>`, cellWidth, cellWidth)

	body.WriteString(`<w:tr><w:trPr><w:tblHeader/></w:trPr>`)
	writeCell(&body, "Original Text", headerFill, paragraphStyle{align: "center"})
	writeCell(&body, "Translated Text", headerFill, paragraphStyle{align: "center"})
	body.WriteString(`</w:tr>`)

	for _, pair := range pairs {
		body.WriteString(`<w:tr>`)
		writeCell(&body, pair.Original, "", paragraphStyle{align: "left"})
		writeCell(&body, pair.Translated, "", paragraphStyle{align: "right", bidi: true})
		body.WriteString(`</w:tr>`)
	}
	body.WriteString(`</w:tbl>`)
	// Word requires a paragraph after a trailing table.
	body.WriteString(`<w:p/>`)

	return packDocument(body.String())
}

// DocumentText renders only the translations: a bold right-to-left paragraph
// per pair followed by an empty spacer paragraph.
func DocumentText(pairs []domain.Pair) ([]byte, error) {
	var body strings.Builder
	for _, pair := range pairs {
		writeParagraph(&body, pair.Translated, paragraphStyle{align: "right", bidi: true, bold: true})
		body.WriteString(`<w:p/>`)
	}
	return packDocument(body.String())
}

type paragraphStyle struct {
	align string
	bidi  bool
	bold  bool
}

func writeCell(b *strings.Builder, text string, fill string, style paragraphStyle) {
	fmt.Fprintf(b, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/>`, cellWidth)
	if fill != "" {
		fmt.Fprintf(b, `<w:shd w:val="clear" w:color="auto" w:fill="%s"/>`, fill)
	}
	b.WriteString(`</w:tcPr>`)
	writeParagraph(b, text, style)
	b.WriteString(`</w:tc>`)
}

func writeParagraph(b *strings.Builder, text string, style paragraphStyle) {
	b.WriteString(`<w:p><w:pPr>`)
	if style.bidi {
		b.WriteString(`<w:bidi/>`)
	}
	fmt.Fprintf(b, `<w:jc w:val="%s"/></w:pPr>`, style.align)

	var runProps strings.Builder
	if style.bold {
		runProps.WriteString(`<w:b/><w:bCs/>`)
	}
	if style.bidi {
		runProps.WriteString(`<w:rtl/>`)
	}

	for i, line := range strings.Split(text, "\n") {
		b.WriteString(`<w:r>`)
		if runProps.Len() > 0 {
			b.WriteString(`<w:rPr>` + runProps.String() + `</w:rPr>`)
		}
		if i > 0 {
			b.WriteString(`<w:br/>`)
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		_ = xml.EscapeText(b, []byte(line))
		b.WriteString(`</w:t></w:r>`)
	}
	b.WriteString(`</w:p>`)
}

func packDocument(body string) ([]byte, error) {
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body +
		`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` +
		`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="708" w:footer="708" w:gutter="0"/>` +
		`</w:sectPr></w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/document.xml", document},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("docx part %s: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("docx part %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close docx: %w", err)
	}
	return buf.Bytes(), nil
}
