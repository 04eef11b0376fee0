package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"canvasd/app/client/llm"
	"canvasd/app/client/n8n"
	"canvasd/app/config"
	"canvasd/app/service/chatlog"
	"canvasd/app/service/session"
)

type stubRelay struct {
	result *n8n.Result
	err    error

	gotQuery   string
	gotPrompt  string
	gotContext string
}

func (r *stubRelay) SendResearch(_ context.Context, query, documentContext string) (*n8n.Result, error) {
	r.gotQuery = query
	r.gotContext = documentContext

	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

func (r *stubRelay) EnhancePrompt(_ context.Context, prompt, documentContext string) (*n8n.Result, error) {
	r.gotPrompt = prompt
	r.gotContext = documentContext

	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

type stubSearcher struct {
	answer string
	asked  int
}

func (s *stubSearcher) Ask(context.Context, string) (string, error) {
	s.asked++
	return s.answer, nil
}

func testConfig() *config.Config {
	return &config.Config{
		OpenAI: config.OpenAI{
			Chat: config.ModelConfig{Model: "gpt-test"},
		},
	}
}

func newTestService(mock *llm.Mock) (*Service, *session.Session) {
	svc := &Service{
		cfg:       testConfig(),
		llmClient: mock,
	}

	reg, _ := session.NewRegistry(nil)
	sess := reg.Create()
	svc.InitSession(sess)

	return svc, sess
}

func TestInitSessionSeedsConfigTurn(t *testing.T) {
	_, sess := newTestService(&llm.Mock{})

	turns := sess.Chat.All()
	if len(turns) != 1 {
		t.Fatalf("expected 1 seeded turn, got %d", len(turns))
	}
	if turns[0].Role != chatlog.RoleAssistant {
		t.Errorf("expected assistant turn, got %s", turns[0].Role)
	}
	if !strings.Contains(turns[0].Content, "gpt-test") {
		t.Errorf("config summary missing model: %q", turns[0].Content)
	}
}

func TestProcessInputPlainResponse(t *testing.T) {
	mock := &llm.Mock{Response: "Hello, how can I help?"}
	svc, sess := newTestService(mock)

	svc.ProcessInput(context.Background(), sess, "hi there")

	turns := sess.Chat.All()
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns (seed + user + assistant), got %d", len(turns))
	}
	if turns[1].Role != chatlog.RoleUser || turns[1].Content != "hi there" {
		t.Errorf("unexpected user turn: %+v", turns[1])
	}
	if turns[2].Role != chatlog.RoleAssistant || turns[2].Content != "Hello, how can I help?" {
		t.Errorf("unexpected assistant turn: %+v", turns[2])
	}
	if turns[2].HasEdit {
		t.Error("plain response must not be marked as edit")
	}
	if _, ok := sess.Tracker.Pending(); ok {
		t.Error("no proposal should be pending")
	}
}

func TestProcessInputEmptyIgnored(t *testing.T) {
	mock := &llm.Mock{Response: "should not be called"}
	svc, sess := newTestService(mock)

	svc.ProcessInput(context.Background(), sess, "   \n  ")

	if sess.Chat.Len() != 1 {
		t.Errorf("blank input should append nothing, got %d turns", sess.Chat.Len())
	}
	if len(mock.Calls) != 0 {
		t.Error("blank input should not reach the model")
	}
}

func TestProcessInputEditProposal(t *testing.T) {
	mock := &llm.Mock{Response: "I'll update the document with:\n\n# New Title\n\nBody text."}
	svc, sess := newTestService(mock)

	svc.ProcessInput(context.Background(), sess, "rewrite the title")

	last, _ := sess.Chat.Last()
	if !last.HasEdit {
		t.Error("expected has_edit annotation")
	}

	p, ok := sess.Tracker.Pending()
	if !ok {
		t.Fatal("expected a pending proposal")
	}
	if p.Content != "# New Title\n\nBody text." {
		t.Errorf("unexpected proposal content: %q", p.Content)
	}

	if sess.Document.Get() != "" {
		t.Error("document must not change before the proposal is applied")
	}
}

func TestProcessInputProposalOverwrite(t *testing.T) {
	mock := &llm.Mock{Response: "I'll update the document with: first"}
	svc, sess := newTestService(mock)

	svc.ProcessInput(context.Background(), sess, "one")

	mock.Response = "I'll update the document with: second"
	svc.ProcessInput(context.Background(), sess, "two")

	p, _ := sess.Tracker.Pending()
	if p.Content != "second" {
		t.Errorf("expected last proposal to win, got %q", p.Content)
	}
}

func TestProcessInputLLMError(t *testing.T) {
	mock := &llm.Mock{Err: errors.New("connection refused")}
	svc, sess := newTestService(mock)

	svc.ProcessInput(context.Background(), sess, "hello")

	last, _ := sess.Chat.Last()
	if last.Role != chatlog.RoleAssistant {
		t.Errorf("expected assistant error turn, got %s", last.Role)
	}
	if !strings.Contains(last.Content, "connection refused") {
		t.Errorf("error turn should carry the failure: %q", last.Content)
	}
}

func TestProcessInputDocumentContextInPrompt(t *testing.T) {
	mock := &llm.Mock{Response: "ok"}
	svc, sess := newTestService(mock)

	sess.Document.Set("# Existing Document\n\nWith some body.", false)
	svc.ProcessInput(context.Background(), sess, "what is this about?")

	if len(mock.Calls) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(mock.Calls))
	}
	if !strings.Contains(mock.Calls[0].SystemPrompt, "# Existing Document") {
		t.Error("system prompt should embed the current document")
	}
	if !strings.Contains(mock.Calls[0].SystemPrompt, "The document has been updated") {
		t.Error("system prompt should flag the out-of-band update")
	}
}

func TestProcessInputSystemTurnsExcludedFromModel(t *testing.T) {
	mock := &llm.Mock{Response: "ok"}
	svc, sess := newTestService(mock)

	sess.Chat.Append(chatlog.Turn{Role: chatlog.RoleSystem, Content: confirmationMessage})
	svc.ProcessInput(context.Background(), sess, "hi")

	for _, msg := range mock.Calls[0].Messages {
		if msg.Role == string(chatlog.RoleSystem) {
			t.Errorf("system turn leaked into model history: %+v", msg)
		}
	}
}

func TestSearchAugmentation(t *testing.T) {
	mock := &llm.Mock{Response: "ok"}
	searcher := &stubSearcher{answer: "fresh facts from the web"}

	svc, sess := newTestService(mock)
	svc.search = searcher

	svc.ProcessInput(context.Background(), sess, "give me the latest research on fusion")

	if searcher.asked != 1 {
		t.Fatalf("expected searcher to be asked once, got %d", searcher.asked)
	}
	if !strings.Contains(mock.Calls[0].SystemPrompt, "fresh facts from the web") {
		t.Error("search answer should be embedded in the system prompt")
	}
}

func TestSearchSkippedForPlainQuestions(t *testing.T) {
	mock := &llm.Mock{Response: "ok"}
	searcher := &stubSearcher{answer: "unused"}

	svc, sess := newTestService(mock)
	svc.search = searcher

	svc.ProcessInput(context.Background(), sess, "fix a typo in the intro")

	if searcher.asked != 0 {
		t.Errorf("plain editing request should not trigger search, asked=%d", searcher.asked)
	}
}

func TestApplyProposal(t *testing.T) {
	mock := &llm.Mock{Response: "I'll update the document with: X"}
	svc, sess := newTestService(mock)

	svc.ProcessInput(context.Background(), sess, "edit")
	before := sess.Chat.Len()

	if !svc.ApplyProposal(sess) {
		t.Fatal("apply should succeed with a pending proposal")
	}

	if sess.Document.Get() != "X" {
		t.Errorf("expected document content X, got %q", sess.Document.Get())
	}
	if _, ok := sess.Tracker.Pending(); ok {
		t.Error("proposal should be cleared after apply")
	}
	if sess.Chat.Len() != before+1 {
		t.Errorf("expected exactly one confirmation turn, got %d new", sess.Chat.Len()-before)
	}

	last, _ := sess.Chat.Last()
	if last.Role != chatlog.RoleSystem || last.Content != confirmationMessage {
		t.Errorf("unexpected confirmation turn: %+v", last)
	}

	// apply saved undo history
	if restored, ok := sess.Document.Undo(); !ok || restored != "" {
		t.Errorf("undo after apply should restore prior content, got %q ok=%v", restored, ok)
	}
}

func TestApplyWithoutPending(t *testing.T) {
	svc, sess := newTestService(&llm.Mock{})

	if svc.ApplyProposal(sess) {
		t.Error("apply with no pending proposal should report false")
	}
	if sess.Chat.Len() != 1 {
		t.Error("no turn should be appended")
	}
}

func TestCancelProposal(t *testing.T) {
	mock := &llm.Mock{Response: "I'll update the document with: X"}
	svc, sess := newTestService(mock)

	sess.Document.Set("untouched", false)
	svc.ProcessInput(context.Background(), sess, "edit")
	before := sess.Chat.Len()

	if !svc.CancelProposal(sess) {
		t.Fatal("cancel should succeed with a pending proposal")
	}

	if sess.Document.Get() != "untouched" {
		t.Errorf("cancel must not touch the document, got %q", sess.Document.Get())
	}
	if _, ok := sess.Tracker.Pending(); ok {
		t.Error("proposal should be cleared after cancel")
	}
	if sess.Chat.Len() != before+1 {
		t.Errorf("expected exactly one cancellation turn, got %d new", sess.Chat.Len()-before)
	}

	last, _ := sess.Chat.Last()
	if last.Content != cancellationMessage {
		t.Errorf("unexpected cancellation turn: %+v", last)
	}
}

func TestResearchCommand(t *testing.T) {
	relay := &stubRelay{result: &n8n.Result{Success: true, Content: "Quantum computing summary..."}}

	svc, sess := newTestService(&llm.Mock{})
	svc.relay = relay

	sess.Document.Set("# Notes", false)
	svc.ProcessInput(context.Background(), sess, "/research quantum computing")

	if relay.gotQuery != "quantum computing" {
		t.Errorf("unexpected relay query: %q", relay.gotQuery)
	}
	if relay.gotContext != "# Notes" {
		t.Errorf("relay should receive the document as context, got %q", relay.gotContext)
	}

	turns := sess.Chat.All()
	if len(turns) != 3 {
		t.Fatalf("expected seed + user + assistant, got %d", len(turns))
	}
	if turns[1].Content != "Research: quantum computing" {
		t.Errorf("unexpected user turn: %q", turns[1].Content)
	}
	if !strings.Contains(turns[2].Content, "Research complete") {
		t.Errorf("unexpected assistant turn: %q", turns[2].Content)
	}

	doc := sess.Document.Get()
	if !strings.Contains(doc, researchHeading) || !strings.Contains(doc, "Quantum computing summary...") {
		t.Errorf("research results not appended:\n%s", doc)
	}
	if !strings.HasPrefix(doc, "# Notes") {
		t.Errorf("existing content lost:\n%s", doc)
	}
	if sess.Document.HistoryLen() != 0 {
		t.Error("research append should not consume an undo slot")
	}
}

func TestResearchDisabled(t *testing.T) {
	svc, sess := newTestService(&llm.Mock{})

	svc.ProcessInput(context.Background(), sess, "/research something")

	last, _ := sess.Chat.Last()
	if !strings.Contains(last.Content, "disabled") {
		t.Errorf("expected disabled notice, got %q", last.Content)
	}
	if sess.Document.Get() != "" {
		t.Error("document must stay untouched")
	}
}

func TestResearchRelayFailure(t *testing.T) {
	relay := &stubRelay{err: errors.New("timeout")}

	svc, sess := newTestService(&llm.Mock{})
	svc.relay = relay

	svc.ProcessInput(context.Background(), sess, "/research anything")

	last, _ := sess.Chat.Last()
	if !strings.Contains(last.Content, "Error during research") {
		t.Errorf("expected research error turn, got %q", last.Content)
	}
}

func TestResearchWorkflowError(t *testing.T) {
	relay := &stubRelay{result: &n8n.Result{Err: "no results"}}

	svc, sess := newTestService(&llm.Mock{})
	svc.relay = relay

	svc.ProcessInput(context.Background(), sess, "/research anything")

	last, _ := sess.Chat.Last()
	if !strings.Contains(last.Content, "Research error: no results") {
		t.Errorf("expected workflow error turn, got %q", last.Content)
	}
}

func TestResearchClearsPendingProposal(t *testing.T) {
	mock := &llm.Mock{Response: "I'll update the document with: stale"}
	relay := &stubRelay{result: &n8n.Result{Success: true, Content: "data"}}

	svc, sess := newTestService(mock)
	svc.relay = relay

	svc.ProcessInput(context.Background(), sess, "edit something")
	svc.ProcessInput(context.Background(), sess, "/research topic")

	if _, ok := sess.Tracker.Pending(); ok {
		t.Error("research should reset the pending proposal")
	}
}

func TestClearChatReseeds(t *testing.T) {
	mock := &llm.Mock{Response: "hi"}
	svc, sess := newTestService(mock)

	svc.ProcessInput(context.Background(), sess, "hello")
	svc.ClearChat(sess)

	turns := sess.Chat.All()
	if len(turns) != 1 {
		t.Fatalf("expected only the reseeded config turn, got %d", len(turns))
	}
	if !strings.Contains(turns[0].Content, "System Configuration") {
		t.Errorf("unexpected reseeded turn: %q", turns[0].Content)
	}
}

func TestEnhancePromptUsesRelay(t *testing.T) {
	relay := &stubRelay{result: &n8n.Result{Success: true, Content: "Write a detailed outline about Go."}}

	svc, sess := newTestService(&llm.Mock{})
	svc.relay = relay
	sess.Document.Set("# Draft", false)

	enhanced := svc.EnhancePrompt(context.Background(), sess, "write about go")

	if enhanced != "Write a detailed outline about Go." {
		t.Errorf("unexpected enhanced prompt: %q", enhanced)
	}
	if relay.gotPrompt != "write about go" {
		t.Errorf("unexpected prompt sent to relay: %q", relay.gotPrompt)
	}
	if relay.gotContext != "# Draft" {
		t.Errorf("unexpected document context: %q", relay.gotContext)
	}
}

func TestEnhancePromptFallsBackOnFailure(t *testing.T) {
	relay := &stubRelay{err: errors.New("connection refused")}

	svc, sess := newTestService(&llm.Mock{})
	svc.relay = relay

	if got := svc.EnhancePrompt(context.Background(), sess, "draft"); got != "draft" {
		t.Errorf("expected the draft back on relay failure, got %q", got)
	}
}

func TestEnhancePromptDisabled(t *testing.T) {
	svc, sess := newTestService(&llm.Mock{})

	if got := svc.EnhancePrompt(context.Background(), sess, "draft"); got != "draft" {
		t.Errorf("expected the draft back when the relay is disabled, got %q", got)
	}
}
