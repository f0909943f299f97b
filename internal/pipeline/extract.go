package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"attendance/internal/util"
)

var ErrUnsupportedInput = errors.New("unsupported input type")

const (
	InputText = "text"
	InputFile = "file"
	InputPDF  = "pdf"
	InputHOCR = "hocr"
	InputEML  = "eml"
	InputXLSX = "xlsx"
)

// cellSeparator joins spreadsheet and HTML table cells into one OCR-like line.
// It is one of the default column separators, so name isolation still works.
const cellSeparator = " | "

// ExtractTextFromInput returns the raw sheet text for an input. For "text" the
// input is the text itself; for every other type it is a file path.
func ExtractTextFromInput(inputType string, input string) (string, error) {
	switch inputType {
	case InputText:
		return input, nil
	case InputFile, InputPDF, InputHOCR, InputEML, InputXLSX:
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedInput, inputType)
	}

	blob, err := os.ReadFile(input)
	if err != nil {
		return "", err
	}
	switch inputType {
	case InputPDF:
		return parsePDF(blob)
	case InputHOCR:
		return parseHOCR(string(blob))
	case InputEML:
		return parseEML(blob)
	case InputXLSX:
		return parseXLSX(blob)
	}
	return string(blob), nil
}

// InputTypeFromPath guesses the input type from a file extension.
func InputTypeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return InputPDF
	case ".hocr", ".html", ".htm":
		return InputHOCR
	case ".eml":
		return InputEML
	case ".xlsx":
		return InputXLSX
	}
	return InputFile
}

// parseHOCR rebuilds lines from Tesseract hOCR markup. Plain HTML tables are
// read row by row, anything else falls back to the document text.
func parseHOCR(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	lines := []string{}
	doc.Find(".ocr_line, .ocrx_line, .ocr_textfloat, .ocr_header, .ocr_caption").Each(func(_ int, line *goquery.Selection) {
		words := []string{}
		line.Find(".ocrx_word").Each(func(_ int, w *goquery.Selection) {
			if t := strings.TrimSpace(w.Text()); t != "" {
				words = append(words, t)
			}
		})
		if len(words) == 0 {
			words = append(words, line.Text())
		}
		if l := util.CollapseSpaces(strings.Join(words, " ")); l != "" {
			lines = append(lines, l)
		}
	})
	if len(lines) > 0 {
		return strings.Join(lines, "\n"), nil
	}

	if rows := tableRows(doc.Selection); len(rows) > 0 {
		return strings.Join(rows, "\n"), nil
	}
	return strings.Join(splitLines(doc.Text()), "\n"), nil
}

func tableRows(sel *goquery.Selection) []string {
	out := []string{}
	sel.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := []string{}
		row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			if c := util.CollapseSpaces(cell.Text()); c != "" {
				cells = append(cells, c)
			}
		})
		if len(cells) > 0 {
			out = append(out, strings.Join(cells, cellSeparator))
		}
	})
	return out
}

// parseEML collects the text body of a forwarded sheet plus any text, PDF,
// hOCR or spreadsheet attachments. Unreadable attachments are skipped.
func parseEML(raw []byte) (string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}

	parts := []string{}
	switch {
	case strings.TrimSpace(env.Text) != "":
		parts = append(parts, env.Text)
	case strings.TrimSpace(env.HTML) != "":
		if text, err := parseHOCR(env.HTML); err == nil {
			parts = append(parts, text)
		}
	}

	for _, att := range env.Attachments {
		var (
			text string
			err  error
		)
		switch InputTypeFromPath(att.FileName) {
		case InputPDF:
			text, err = parsePDF(att.Content)
		case InputHOCR:
			text, err = parseHOCR(string(att.Content))
		case InputXLSX:
			text, err = parseXLSX(att.Content)
		default:
			if !strings.HasPrefix(att.ContentType, "text/") && !strings.HasSuffix(strings.ToLower(att.FileName), ".txt") {
				continue
			}
			text = string(att.Content)
		}
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, text)
	}

	return strings.Join(parts, "\n"), nil
}

func parseXLSX(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	defer f.Close()

	lines := []string{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			for _, c := range row {
				if c = util.CollapseSpaces(c); c != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, cellSeparator))
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

// parsePDF reads the text layer of a searchable PDF, page by page.
func parsePDF(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	pages := []string{}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil || len(rows) == 0 {
			text, err := p.GetPlainText(nil)
			if err != nil {
				continue
			}
			pages = append(pages, text)
			continue
		}
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, t := range row.Content {
				words = append(words, t.S)
			}
			if l := util.CollapseSpaces(strings.Join(words, " ")); l != "" {
				lines = append(lines, l)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return strings.Join(pages, "\n"), nil
}
