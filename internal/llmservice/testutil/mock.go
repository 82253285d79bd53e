// Package testutil provides a scripted llms.Model for tests.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// MockModel replays scripted responses in order and records every request.
// When Err is set it is returned instead.
type MockModel struct {
	mu        sync.Mutex
	Responses []string
	Err       error

	// RespondFn, when set, computes the response from the request instead of
	// the Responses queue. Needed when concurrent calls make queue order
	// nondeterministic.
	RespondFn func(messages []llms.MessageContent) (string, error)

	// Requests holds the message sets seen, in call order.
	Requests [][]llms.MessageContent

	calls int
}

var _ llms.Model = (*MockModel)(nil)

// NewMockModel scripts the given responses.
func NewMockModel(responses ...string) *MockModel {
	return &MockModel{Responses: responses}
}

// Calls reports how many times the model was invoked.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, messages)
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.RespondFn != nil {
		content, err := m.RespondFn(messages)
		if err != nil {
			return nil, err
		}
		return &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: content}},
		}, nil
	}
	if len(m.Responses) == 0 {
		return nil, errors.New("mock model: no scripted response left")
	}
	content := m.Responses[0]
	m.Responses = m.Responses[1:]
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content}},
	}, nil
}

func (m *MockModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

// UserText flattens the human-role text parts of a recorded request.
func UserText(messages []llms.MessageContent) string {
	var out string
	for _, msg := range messages {
		if msg.Role != llms.ChatMessageTypeHuman {
			continue
		}
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				out += text.Text
			}
		}
	}
	return out
}
