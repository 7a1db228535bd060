package parser

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/pemistahl/lingua-go"
	"golang.org/x/text/encoding/charmap"

	"github.com/dtnitsch/wordreduce/models"
)

// languageSample bounds how much text is fed to the language detector.
const languageSample = 8 << 10

var detectedLanguages = []lingua.Language{
	lingua.English,
	lingua.French,
	lingua.German,
	lingua.Spanish,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Dutch,
	lingua.Polish,
}

// Document is one rank's input, reduced to plain text.
type Document struct {
	Path     string
	Title    string
	Text     string
	Language string // ISO-639-1, lowercase; empty when not detected
	HTML     bool
}

// Parser loads input files. It is safe for concurrent use by all ranks.
type Parser struct {
	Encoding       string
	DetectLanguage bool

	once     sync.Once
	detector lingua.LanguageDetector
}

// Load reads path, decodes it and, for .html/.htm files, keeps only the
// readable text.
func (p *Parser) Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}
	text, err := decode(data, p.Encoding)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", path, err)
	}

	doc := &Document{Path: path, Text: text}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		title, body, err := ExtractHTML(path, text)
		if err != nil {
			return nil, fmt.Errorf("error parsing HTML %s: %w", path, err)
		}
		doc.Title, doc.Text, doc.HTML = title, body, true
	}

	if p.DetectLanguage {
		doc.Language = p.language(doc.Text)
	}
	return doc, nil
}

func decode(data []byte, encoding string) (string, error) {
	switch strings.ToLower(encoding) {
	case "", models.EncodingUTF8:
		return string(data), nil
	case models.EncodingLatin1:
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	return "", fmt.Errorf("unknown encoding %q", encoding)
}

func (p *Parser) language(text string) string {
	p.once.Do(func() {
		p.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(detectedLanguages...).
			Build()
	})
	if len(text) > languageSample {
		cut := languageSample
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	lang, ok := p.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}

// ExtractHTML uses go-readability to find the main article and goquery to
// flatten it to text. Pages readability cannot handle fall back to the
// text of the whole body.
func ExtractHTML(path, html string) (title, text string, err error) {
	pageURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(path)}

	readabilityParser := readability.NewParser()
	article, rerr := readabilityParser.Parse(strings.NewReader(html), pageURL)
	if rerr == nil && strings.TrimSpace(article.Content) != "" {
		text, err = VisibleText(article.Content)
		if err != nil {
			return "", "", err
		}
		if text != "" {
			return normalizeText(article.Title), text, nil
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}
	doc.Find("script,style,noscript").Remove()
	return normalizeText(doc.Find("title").First().Text()), normalizeText(doc.Find("body").Text()), nil
}

// VisibleText returns the text of the content-bearing elements of html.
func VisibleText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script,style,noscript").Remove()

	var parts []string
	doc.Find("h1,h2,h3,h4,h5,h6,p,li,td,th,pre,blockquote").Each(func(i int, s *goquery.Selection) {
		// Nested matches (li > p) are covered by the outer element.
		if s.ParentsFiltered("li,td,th,blockquote").Length() > 0 {
			return
		}
		if text := normalizeText(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return normalizeText(doc.Text()), nil
	}
	return strings.Join(parts, "\n"), nil
}

// normalizeText cleans up a string by trimming space and removing excess newlines.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			// Write the line and a single space for separation
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	// Return the result, trimming the final space
	return strings.TrimSpace(b.String())
}
