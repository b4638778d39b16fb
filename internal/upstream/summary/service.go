package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/adjebara/people-search/backend/internal/upstream/search"
)

const summaryPrompt = `Given this list of people profiles, return a short description of each of those persons.
Answer with one JSON object per person, each with exactly the keys "full_name" and "description".
If an entry does not describe a person, ignore it.

Here is the list of profiles:
{content}`

// Service turns raw search documents into the loosely structured
// one-object-per-person text the session layer parses.
type Service struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the summarization chain against the given model.
func NewService(ctx context.Context, chatModel model.ChatModel) (*Service, error) {
	template := prompt.FromMessages(
		schema.FString,
		schema.UserMessage(summaryPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile summary chain: %w", err)
	}

	return &Service{chain: runnable}, nil
}

// Summarize produces the per-person profile text for the documents.
func (s *Service) Summarize(ctx context.Context, docs []search.Document) (string, error) {
	content, err := json.Marshal(docs)
	if err != nil {
		return "", fmt.Errorf("marshalling documents: %w", err)
	}

	response, err := s.chain.Invoke(ctx, map[string]any{"content": string(content)})
	if err != nil {
		return "", fmt.Errorf("failed to run summary chain: %w", err)
	}

	log.Printf("[upstream] summarized %d documents, output length=%d", len(docs), len(response.Content))
	return response.Content, nil
}
