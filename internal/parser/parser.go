// Package parser extracts plain transcript text from uploaded call files.
package parser

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmtext "github.com/yuin/goldmark/text"
)

// ExtractText returns the plain text content of a transcript file. The
// format is picked by extension.
func ExtractText(filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".txt":
		return parseText(filePath)
	case ".md":
		return parseMarkdown(filePath)
	case ".pdf":
		return parsePDF(filePath)
	case ".docx":
		return parseDOCX(filePath)
	case ".pptx":
		return parsePPTX(filePath)
	case ".xlsx":
		return parseXLSX(filePath)
	case ".ods":
		return parseODS(filePath)
	default:
		return "", fmt.Errorf("unsupported file format: %s", ext)
	}
}

// SupportedExtensions lists the accepted upload formats.
func SupportedExtensions() []string {
	return []string{".txt", ".md", ".pdf", ".docx", ".pptx", ".xlsx", ".ods"}
}

func parseText(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseMarkdown strips markdown structure by walking the goldmark AST and
// collecting text nodes.
func parseMarkdown(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(gmtext.NewReader(data))

	var text strings.Builder
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				text.Write(t.Segment.Value(data))
				if t.SoftLineBreak() || t.HardLineBreak() {
					text.WriteByte('\n')
				}
			}
			return ast.WalkContinue, nil
		}
		if n.Type() == ast.TypeBlock {
			text.WriteString("\n\n")
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text.String()), nil
}

func parsePDF(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		pageText, err := reader.Page(i).GetPlainText(nil)
		if err != nil {
			return "", err
		}
		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(pageText)
	}
	return strings.TrimSpace(text.String()), nil
}

func parseDOCX(filePath string) (string, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	// document.xml text lives in <w:t> runs
	content := r.Editable().GetContent()
	return strings.TrimSpace(extractXMLRuns(content, "w:t")), nil
}

func parsePPTX(filePath string) (string, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slideText := extractXMLRuns(string(data), "a:t")
		if strings.TrimSpace(slideText) != "" {
			if text.Len() > 0 {
				text.WriteString("\n\n")
			}
			text.WriteString(strings.TrimSpace(slideText))
		}
	}
	return text.String(), nil
}

func parseXLSX(filePath string) (string, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, sheet := range f.Sheets {
		for _, row := range sheet.Rows {
			var cells []string
			for _, cell := range row.Cells {
				if v := strings.TrimSpace(cell.String()); v != "" {
					cells = append(cells, v)
				}
			}
			if len(cells) > 0 {
				text.WriteString(strings.Join(cells, "\t"))
				text.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(text.String()), nil
}

func parseODS(filePath string) (string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		for _, row := range rows {
			var cells []string
			for _, cell := range row {
				if v := strings.TrimSpace(cell); v != "" {
					cells = append(cells, v)
				}
			}
			if len(cells) > 0 {
				text.WriteString(strings.Join(cells, "\t"))
				text.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(text.String()), nil
}

// extractXMLRuns collects the inner text of every <tag ...>...</tag> run,
// joining runs with spaces.
func extractXMLRuns(xmlContent, tag string) string {
	var text strings.Builder
	open := "<" + tag
	closing := "</" + tag + ">"

	rest := xmlContent
	for {
		start := strings.Index(rest, open)
		if start == -1 {
			break
		}
		rest = rest[start+len(open):]
		// "<w:t" must not match "<w:tbl"
		if rest == "" || (rest[0] != ' ' && rest[0] != '>' && rest[0] != '/') {
			continue
		}
		// skip attributes up to the closing bracket of the open tag
		gt := strings.Index(rest, ">")
		if gt == -1 {
			break
		}
		if gt > 0 && rest[gt-1] == '/' {
			// self-closing run, no text
			rest = rest[gt+1:]
			continue
		}
		rest = rest[gt+1:]
		end := strings.Index(rest, closing)
		if end == -1 {
			break
		}
		if run := rest[:end]; run != "" {
			if text.Len() > 0 {
				text.WriteString(" ")
			}
			text.WriteString(run)
		}
		rest = rest[end+len(closing):]
	}
	return text.String()
}
