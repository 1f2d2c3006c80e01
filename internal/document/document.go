// Package document turns uploaded or posted invoice documents into the plain
// text the risk engine analyses.
package document

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	apperrors "github.com/flowfi/flowai/internal/errors"
)

// Intake limits
const (
	MaxUploadBytes   = 2 << 20
	MaxDocumentChars = 200000
)

// Document formats
const (
	FormatText = "text"
	FormatHTML = "html"
)

var allowedExtensions = map[string]bool{
	".txt":  true,
	".html": true,
	".htm":  true,
}

// Document is normalised document text ready for analysis
type Document struct {
	Text          string `json:"-"`
	Format        string `json:"format"`
	Chars         int    `json:"chars"`
	OriginalChars int    `json:"original_chars"`
	Truncated     bool   `json:"truncated"`
}

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\v\r]+`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// AllowedExtension reports whether an uploaded file name is accepted
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// AllowedExtensions lists the accepted upload extensions
func AllowedExtensions() []string {
	return []string{".txt", ".html", ".htm"}
}

// FromUpload reads an uploaded file, rejecting unsupported extensions and
// files larger than MaxUploadBytes
func FromUpload(r io.Reader, filename, contentType string) (Document, error) {
	if !AllowedExtension(filename) {
		return Document{}, apperrors.InvalidInput("unsupported file type", nil).
			WithDetails(fmt.Sprintf("allowed extensions: %s", strings.Join(AllowedExtensions(), ", ")))
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return Document{}, apperrors.InvalidInput("failed to read upload", err)
	}
	if len(data) > MaxUploadBytes {
		return Document{}, apperrors.PayloadTooLarge("file exceeds 2 MB limit", nil)
	}

	return FromBytes(data, filename, contentType)
}

// FromBytes converts raw document bytes, detecting HTML from the content
// type, the file extension or the content itself. CRLF line endings become LF.
func FromBytes(data []byte, filename, contentType string) (Document, error) {
	if IsHTML(data, filename, contentType) {
		text, err := HTMLToText(data)
		if err != nil {
			return Document{}, apperrors.InvalidInput("failed to parse HTML document", err)
		}
		return normalize(unifyNewlines(text), FormatHTML), nil
	}
	return normalize(unifyNewlines(string(data)), FormatText), nil
}

// FromText wraps text posted directly, applying the character bound. The text
// is otherwise analysed exactly as given.
func FromText(text string) Document {
	return normalize(text, FormatText)
}

func unifyNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}

// IsHTML decides whether data should be treated as HTML
func IsHTML(data []byte, filename, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".html", ".htm":
		return true
	case ".txt":
		return false
	}
	return strings.HasPrefix(http.DetectContentType(data), "text/html")
}

// blockSelector lists elements whose content starts on a new line
const blockSelector = "p, div, br, tr, li, ul, ol, table, h1, h2, h3, h4, h5, h6, " +
	"section, article, header, footer, address, pre, blockquote, dl, dt, dd, hr, form"

// HTMLToText extracts readable text from an HTML document. Scripts and
// styles are dropped and block elements are separated by newlines.
func HTMLToText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript, template, head").Remove()
	doc.Find("td, th").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.BeforeHtml("\n")
		s.AfterHtml("\n")
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return root.Text(), nil
}

func normalize(text, format string) Document {
	text = strings.ToValidUTF8(text, "�")
	if format == FormatHTML {
		text = tidy(text)
	}

	doc := Document{Format: format, OriginalChars: utf8.RuneCountInString(text)}
	if doc.OriginalChars > MaxDocumentChars {
		text = truncateRunes(text, MaxDocumentChars)
		doc.Truncated = true
	}
	doc.Text = text
	doc.Chars = utf8.RuneCountInString(text)
	return doc
}

// tidy collapses the whitespace left behind by markup
func tidy(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
