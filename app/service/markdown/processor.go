package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
	"github.com/yuin/goldmark"
)

const sectionChunkSize = 2000

var (
	headerRe       = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	headerSpaceRe  = regexp.MustCompile(`(?m)^(#{1,6})([^ #])`)
	bulletSpaceRe  = regexp.MustCompile(`(?m)^(\s*[-*+])([^ ])`)
	sectionBreakRe = regexp.MustCompile("(\n#{1,6} .+\n)([^\n])")
	codeBlockRe    = regexp.MustCompile("(?s)```(\\w*)\n(.*?)```")
)

type Header struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

type CodeBlock struct {
	Language string `json:"language"`
	Content  string `json:"content"`
}

// Processor bundles the markdown tooling used by the document canvas:
// outline extraction, table-of-contents generation, formatting cleanup,
// header-aware splitting and HTML preview rendering.
type Processor struct {
	splitter textsplitter.TextSplitter
}

func NewProcessor() *Processor {
	return &Processor{
		splitter: textsplitter.NewMarkdownTextSplitter(
			textsplitter.WithChunkSize(sectionChunkSize),
			textsplitter.WithChunkOverlap(0),
		),
	}
}

func (p *Processor) ExtractHeaders(text string) []Header {
	var headers []Header

	for _, line := range strings.Split(text, "\n") {
		m := headerRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		headers = append(headers, Header{
			Level: len(m[1]),
			Text:  strings.TrimSpace(m[2]),
		})
	}

	return headers
}

// GenerateTOC builds a markdown table of contents. A leading H1 is treated
// as the document title and skipped. Returns "" for documents without
// headers.
func (p *Processor) GenerateTOC(text string) string {
	headers := p.ExtractHeaders(text)
	if len(headers) == 0 {
		return ""
	}

	lines := []string{"# Table of Contents\n"}

	for i, h := range headers {
		if i == 0 && h.Level == 1 {
			continue
		}

		indent := strings.Repeat("  ", h.Level-1)
		anchor := strings.ReplaceAll(strings.ToLower(h.Text), " ", "-")
		lines = append(lines, fmt.Sprintf("%s- [%s](#%s)", indent, h.Text, anchor))
	}

	return strings.Join(lines, "\n")
}

// Format normalizes common markdown sloppiness: CRLF line endings, missing
// space after header hashes and list bullets, and missing blank line after
// a heading.
func (p *Processor) Format(text string) string {
	out := strings.ReplaceAll(text, "\r\n", "\n")
	out = headerSpaceRe.ReplaceAllString(out, "$1 $2")
	out = bulletSpaceRe.ReplaceAllString(out, "$1 $2")
	out = sectionBreakRe.ReplaceAllString(out, "$1\n$2")

	return out
}

func (p *Processor) ExtractCodeBlocks(text string) []CodeBlock {
	var blocks []CodeBlock

	for _, m := range codeBlockRe.FindAllStringSubmatch(text, -1) {
		language := m[1]
		if language == "" {
			language = "text"
		}

		blocks = append(blocks, CodeBlock{
			Language: language,
			Content:  m[2],
		})
	}

	return blocks
}

// SplitSections splits a document into header-aware chunks for
// section-level processing.
func (p *Processor) SplitSections(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	sections, err := p.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split markdown: %w", err)
	}

	return sections, nil
}

// RenderHTML converts markdown to HTML for the preview pane.
func (p *Processor) RenderHTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	return buf.String(), nil
}
