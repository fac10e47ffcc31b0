package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// extractDocx opens the document as a ZIP archive and walks the XML of
// word/document.xml, joining paragraph text with newlines.
func (e *Extractor) extractDocx(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Format: "docx", Err: err}
	}

	var docXML *zip.File
	for _, f := range reader.File {
		if f.Name == "word/document.xml" {
			docXML = f
			break
		}
	}
	if docXML == nil {
		return "", &ExtractionError{Format: "docx", Err: errors.New("word/document.xml not found")}
	}

	rc, err := docXML.Open()
	if err != nil {
		return "", &ExtractionError{Format: "docx", Err: err}
	}
	defer rc.Close()

	text, err := decodeDocumentXML(rc)
	if err != nil {
		return "", &ExtractionError{Format: "docx", Err: err}
	}
	return text, nil
}

func decodeDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		b         strings.Builder
		paragraph strings.Builder
		inText    bool
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
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
				if b.Len() > 0 {
					b.WriteByte('\n')
				}
				b.WriteString(paragraph.String())
				paragraph.Reset()
			}
		case xml.CharData:
			if inText {
				paragraph.Write(t)
			}
		}
	}

	return b.String(), nil
}
