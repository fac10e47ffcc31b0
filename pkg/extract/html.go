package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractHTML pulls visible text out of an HTML document, dropping script and
// style content and collapsing blank lines.
func (e *Extractor) extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", &ExtractionError{Format: "html", Err: err}
	}

	doc.Find("script, style, noscript").Remove()

	body := doc.Find("body")
	text := body.Text()
	if body.Length() == 0 {
		text = doc.Text()
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n"), nil
}
