package llm

import "context"

// Mock is a canned Client for tests and local runs without an API key.
type Mock struct {
	Response string
	Err      error

	// Calls records every invocation for assertions.
	Calls []MockCall
}

type MockCall struct {
	Messages     []Message
	SystemPrompt string
}

func (m *Mock) Generate(_ context.Context, messages []Message, systemPrompt string) (string, error) {
	m.Calls = append(m.Calls, MockCall{Messages: messages, SystemPrompt: systemPrompt})

	if m.Err != nil {
		return "", m.Err
	}

	return m.Response, nil
}
