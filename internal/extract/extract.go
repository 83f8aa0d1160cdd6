// Package extract turns uploaded resume files into plain text for ranking.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"resumerank-engine/internal/domain"
)

var (
	ErrUnsupported = errors.New("unsupported file type")
	ErrEmptyText   = errors.New("no text extracted")
)

var plainExts = map[string]bool{
	".txt":      true,
	".text":     true,
	".md":       true,
	".markdown": true,
}

var htmlExts = map[string]bool{
	".html": true,
	".htm":  true,
}

// Supported reports whether a file name has an extension we can read.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return plainExts[ext] || htmlExts[ext]
}

// FromBytes extracts normalized text from file content, choosing the reader
// by the extension of name.
func FromBytes(name string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))

	var text string
	switch {
	case plainExts[ext]:
		text = string(data)
	case htmlExts[ext]:
		t, err := htmlText(data)
		if err != nil {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		text = t
	default:
		return "", fmt.Errorf("%s: %w", name, ErrUnsupported)
	}

	text = Normalize(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", name, ErrEmptyText)
	}
	return text, nil
}

// FromFile reads and extracts a document from disk, named by its base name.
func FromFile(path string) (domain.Document, error) {
	name := filepath.Base(path)
	if !Supported(name) {
		return domain.Document{}, fmt.Errorf("%s: %w", name, ErrUnsupported)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	text, err := FromBytes(name, data)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{Name: name, Text: text}, nil
}

// blockSelectors end a line of text when rendered.
const blockSelectors = "p, div, li, br, tr, h1, h2, h3, h4, h5, h6, section, article, header, footer, td, th"

func htmlText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript, template, head").Remove()
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return root.Text(), nil
}

// Normalize repairs invalid UTF-8, unifies line endings, collapses runs of
// spaces inside each line and drops blank lines.
func Normalize(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, " ")
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")

	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, ln := range lines {
		ln = strings.Join(strings.Fields(ln), " ")
		if ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}
