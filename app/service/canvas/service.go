package canvas

import (
	"context"
	"fmt"
	"strings"

	"canvasd/app/client/llm"
	"canvasd/app/config"
	"canvasd/app/service/markdown"
	"canvasd/app/service/session"

	_ "embed"

	"github.com/samber/do"
)

//go:embed enhance_prompt_template.txt
var enhancePromptTemplate string

//go:embed summary_prompt_template.txt
var summaryPromptTemplate string

// enhancement instruction per type; grammar is the fallback
var enhancementInstructions = map[string]string{
	"grammar":     "Fix grammar, spelling and punctuation mistakes. Do not change the meaning or the structure.",
	"clarity":     "Improve clarity and readability. Simplify convoluted sentences while preserving meaning.",
	"conciseness": "Make the text more concise. Remove redundancy without losing information.",
	"expansion":   "Expand the text with relevant detail, examples and explanation where sections are thin.",
}

// Service implements the document-side operations: file-style actions
// (new/import/undo), markdown tooling (TOC, formatting, outline, preview)
// and LLM-powered enhancement. Every mutating action saves undo history
// first.
type Service struct {
	cfg       *config.Config
	processor *markdown.Processor
	llmClient llm.Client
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	// enhancement runs on its own model config: whole-document rewrites
	// are a good fit for a cheaper model than the chat one
	return &Service{
		cfg:       cfg,
		processor: do.MustInvoke[*markdown.Processor](di),
		llmClient: llm.NewOpenAIClient(cfg.OpenAI.Enhance),
	}, nil
}

// NewDocument clears the buffer, keeping the old content reachable via
// undo.
func (s *Service) NewDocument(sess *session.Session) {
	sess.Document.Set("", true)
}

// Import replaces the document with an externally parsed text blob.
func (s *Service) Import(sess *session.Session, content string) {
	sess.Document.Set(content, true)
}

// Edit applies a direct user edit to the buffer.
func (s *Service) Edit(sess *session.Session, content string) {
	if content == sess.Document.Get() {
		return
	}

	sess.Document.Set(content, true)
}

func (s *Service) Undo(sess *session.Session) (string, bool) {
	return sess.Document.Undo()
}

// InsertTOC prepends a generated table of contents. No-op for documents
// without headers.
func (s *Service) InsertTOC(sess *session.Session) bool {
	toc := s.processor.GenerateTOC(sess.Document.Get())
	if toc == "" {
		return false
	}

	sess.Document.Set(toc+"\n\n"+sess.Document.Get(), true)
	return true
}

func (s *Service) Format(sess *session.Session) {
	sess.Document.Set(s.processor.Format(sess.Document.Get()), true)
}

func (s *Service) Outline(sess *session.Session) []markdown.Header {
	return s.processor.ExtractHeaders(sess.Document.Get())
}

func (s *Service) Preview(sess *session.Session) (string, error) {
	return s.processor.RenderHTML(sess.Document.Get())
}

func (s *Service) Sections(sess *session.Session) ([]string, error) {
	return s.processor.SplitSections(sess.Document.Get())
}

func (s *Service) CodeBlocks(sess *session.Session) []markdown.CodeBlock {
	return s.processor.ExtractCodeBlocks(sess.Document.Get())
}

// Enhance rewrites the whole document through the model with a typed
// instruction. The prior content stays one undo away.
func (s *Service) Enhance(ctx context.Context, sess *session.Session, enhancementType string) error {
	content := sess.Document.Get()
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("document is empty, nothing to enhance")
	}

	instruction, ok := enhancementInstructions[enhancementType]
	if !ok {
		instruction = enhancementInstructions["grammar"]
	}

	prompt := enhancePromptTemplate
	prompt = strings.ReplaceAll(prompt, "{instruction}", instruction)
	prompt = strings.ReplaceAll(prompt, "{document}", content)

	enhanced, err := s.llmClient.Generate(ctx, []llm.Message{{Role: "user", Content: prompt}}, "")
	if err != nil {
		return fmt.Errorf("failed to enhance document: %w", err)
	}

	if enhanced == "" {
		return fmt.Errorf("model returned empty enhancement")
	}

	sess.Document.Set(enhanced, true)
	return nil
}

// Summarize produces a summary of the document without modifying it.
func (s *Service) Summarize(ctx context.Context, sess *session.Session) (string, error) {
	content := sess.Document.Get()
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("document is empty, nothing to summarize")
	}

	prompt := strings.ReplaceAll(summaryPromptTemplate, "{document}", content)

	summary, err := s.llmClient.Generate(ctx, []llm.Message{{Role: "user", Content: prompt}}, "")
	if err != nil {
		return "", fmt.Errorf("failed to summarize document: %w", err)
	}

	return summary, nil
}
