package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"canvasd/app/client/llm"
	"canvasd/app/client/n8n"
	"canvasd/app/client/perplexity"
	"canvasd/app/config"
	"canvasd/app/service/chatlog"
	"canvasd/app/service/proposal"
	"canvasd/app/service/session"

	_ "embed"

	"github.com/samber/do"
)

//go:embed system_prompt_document.txt
var documentPromptTemplate string

//go:embed system_prompt_empty.txt
var emptyPromptTemplate string

const (
	researchPrefix = "/research "

	confirmationMessage = "✅ Document has been updated successfully."
	cancellationMessage = "❌ Document update was cancelled."

	// document listener threshold: trivial buffers aren't worth telling
	// the model about
	minNotifyLength = 20
)

// Searcher answers a free-form question, typically with fresh information
// the chat model doesn't have.
type Searcher interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Relay forwards research queries and prompt drafts to an external
// workflow.
type Relay interface {
	SendResearch(ctx context.Context, query, documentContext string) (*n8n.Result, error)
	EnhancePrompt(ctx context.Context, prompt, documentContext string) (*n8n.Result, error)
}

// Service drives one user-input cycle: route research commands, call the
// chat model with document context, classify the response for edit
// proposals and keep the conversation log current. External failures become
// visible error turns; nothing here panics the session.
type Service struct {
	cfg       *config.Config
	llmClient llm.Client
	search    Searcher
	relay     Relay
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	s := &Service{
		cfg:       cfg,
		llmClient: do.MustInvoke[llm.Client](di),
	}

	if cfg.Perplexity.Enabled {
		s.search = do.MustInvoke[*perplexity.Client](di)
	}
	if cfg.N8N.Enabled {
		s.relay = do.MustInvoke[*n8n.Client](di)
	}

	return s, nil
}

// InitSession seeds a fresh session with the configuration-summary turn and
// subscribes to document changes so the model can be told the buffer moved
// under it.
func (s *Service) InitSession(sess *session.Session) {
	sess.Document.Subscribe(func(content string) {
		if len(strings.TrimSpace(content)) > minNotifyLength {
			sess.MarkDocumentUpdated()
		}
	})

	s.seedConfigTurn(sess)
}

// ProcessInput runs one request/response cycle. Blank input is ignored
// outright: no turn is appended and no call is made.
func (s *Service) ProcessInput(ctx context.Context, sess *session.Session, input string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return
	}

	if query, ok := strings.CutPrefix(input, researchPrefix); ok {
		query = strings.TrimSpace(query)
		if query != "" {
			s.handleResearch(ctx, sess, query)
			return
		}
	}

	sess.Chat.Append(chatlog.Turn{Role: chatlog.RoleUser, Content: input})

	systemPrompt := s.buildSystemPrompt(sess)

	if s.search != nil && shouldSearch(input) {
		answer, err := s.search.Ask(ctx, input)
		if err != nil {
			slog.Warn("Search augmentation failed", "error", err)
		} else if answer != "" {
			systemPrompt += "\n\nUp-to-date search results relevant to the user's question:\n" + answer
		}
	}

	response, err := s.llmClient.Generate(ctx, historyMessages(sess), systemPrompt)
	if err != nil {
		slog.Error("Failed to generate response", "error", err)
		sess.Chat.Append(chatlog.Turn{
			Role:    chatlog.RoleAssistant,
			Content: fmt.Sprintf("Error generating response: %v", err),
		})
		return
	}

	if p, ok := proposal.Classify(response); ok {
		sess.Tracker.Propose(p)
		sess.Chat.Append(chatlog.Turn{
			Role:    chatlog.RoleAssistant,
			Content: response,
			HasEdit: true,
		})
		return
	}

	sess.Chat.Append(chatlog.Turn{Role: chatlog.RoleAssistant, Content: response})
}

// ApplyProposal copies the pending proposal into the document (saving undo
// history) and confirms in the chat. Reports false when nothing is pending.
func (s *Service) ApplyProposal(sess *session.Session) bool {
	p, ok := sess.Tracker.Take()
	if !ok {
		return false
	}

	sess.Document.Set(p.Content, true)
	sess.Chat.Append(chatlog.Turn{Role: chatlog.RoleSystem, Content: confirmationMessage})

	return true
}

// CancelProposal discards the pending proposal, leaving the document
// untouched.
func (s *Service) CancelProposal(sess *session.Session) bool {
	if _, ok := sess.Tracker.Take(); !ok {
		return false
	}

	sess.Chat.Append(chatlog.Turn{Role: chatlog.RoleSystem, Content: cancellationMessage})

	return true
}

// ClearChat wipes the transcript and reseeds the configuration summary.
func (s *Service) ClearChat(sess *session.Session) {
	sess.Chat.Clear()
	s.seedConfigTurn(sess)
}

// EnhancePrompt runs a draft prompt through the relay workflow with the
// current document as context. The draft comes back unchanged when the
// relay is disabled or the workflow fails, so callers can always send the
// result as-is.
func (s *Service) EnhancePrompt(ctx context.Context, sess *session.Session, prompt string) string {
	if s.relay == nil {
		return prompt
	}

	result, err := s.relay.EnhancePrompt(ctx, prompt, sess.Document.Get())
	if err != nil || !result.Success || result.Content == "" {
		return prompt
	}

	return result.Content
}

func (s *Service) seedConfigTurn(sess *session.Session) {
	sess.Chat.Append(chatlog.Turn{
		Role:    chatlog.RoleAssistant,
		Content: s.configSummary(),
	})
}

func (s *Service) configSummary() string {
	return fmt.Sprintf(`**System Configuration:**
- **LLM Provider:** OpenAI
- **Model:** %s
- **N8N Integration:** %s
- **Perplexity Integration:** %s`,
		s.cfg.OpenAI.Chat.Model,
		enabledLabel(s.cfg.N8N.Enabled),
		enabledLabel(s.cfg.Perplexity.Enabled),
	)
}

func (s *Service) buildSystemPrompt(sess *session.Session) string {
	content := sess.Document.Get()

	var prompt string
	if strings.TrimSpace(content) == "" {
		prompt = emptyPromptTemplate
	} else {
		prompt = strings.ReplaceAll(documentPromptTemplate, "{document}", content)
	}

	if sess.ConsumeDocumentUpdated() {
		prompt += "\n\nThe document has been updated outside this conversation since your last reply."
	}

	return prompt
}

// historyMessages converts the transcript into model messages. System turns
// are UI artifacts (confirmations, cancellations) and stay out of the model
// context.
func historyMessages(sess *session.Session) []llm.Message {
	turns := sess.Chat.All()

	messages := make([]llm.Message, 0, len(turns))
	for _, turn := range turns {
		if turn.Role == chatlog.RoleSystem {
			continue
		}

		messages = append(messages, llm.Message{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}

	return messages
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "Enabled"
	}
	return "Disabled"
}
