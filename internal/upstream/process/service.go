package process

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/adjebara/people-search/backend/internal/model/profile"
)

// Outcome is the structured result of running an instruction over the
// current profile set. It mirrors the wire contract of /process.
type Outcome struct {
	ChatText        string              `json:"chat_response"`
	FilteredResults []profile.RawRecord `json:"filtered_results"`
	ResultsModified bool                `json:"results_modified"`
}

// Service executes user instructions over profile sets via the chat model,
// holding it to a strict JSON output contract and recovering gracefully
// when the model strays from it.
type Service struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the instruction-processing chain.
func NewService(ctx context.Context, chatModel model.ChatModel) (*Service, error) {
	// The instruction prompt embeds JSON examples, so it is assembled in
	// Go and handed to the template as one opaque value rather than being
	// parsed for placeholders.
	template := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{input}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile process chain: %w", err)
	}

	return &Service{chain: runnable}, nil
}

// Process applies the instruction to the profiles. On any deviation from
// the JSON contract the original profiles are returned unmodified with the
// model's raw text as the chat response.
func (s *Service) Process(ctx context.Context, profiles []profile.RawRecord, instruction string) (Outcome, error) {
	input, err := buildPrompt(profiles, instruction)
	if err != nil {
		return Outcome{}, err
	}

	response, err := s.chain.Invoke(ctx, map[string]any{"input": input})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to run process chain: %w", err)
	}

	outcome := extractOutcome(response.Content, profiles)
	log.Printf("[upstream] processed instruction, modified=%t, results=%d",
		outcome.ResultsModified, len(outcome.FilteredResults))
	return outcome, nil
}

func buildPrompt(profiles []profile.RawRecord, instruction string) (string, error) {
	content, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling profiles: %w", err)
	}

	var b strings.Builder
	b.WriteString(`You are an AI assistant helping to process search results about people. You will receive:
1. A list of people profiles in JSON format
2. An instruction on how to process them

Your task is to:
1. Execute the instruction on the data
2. Return a response in the following JSON format:

{
    "chat_response": "Your natural language response explaining what you did",
    "filtered_results": [
        {
            "full_name": "Person Name",
            "description": "Person description"
        }
    ],
    "results_modified": true/false
}

IMPORTANT RULES:
- If the instruction involves filtering, removing, or selecting specific people, set "results_modified" to true and return only the matching profiles in "filtered_results"
- If the instruction is just analysis, formatting, or explanation without changing the data, set "results_modified" to false and return all original profiles in "filtered_results"
- Always maintain the exact same JSON structure for each person: {"full_name": "...", "description": "..."}
- The "chat_response" should explain what you did in a conversational way
- If filtering results in no matches, return an empty array for "filtered_results"

Examples of filtering instructions: "remove people who are not CEOs", "show only CTOs", "keep only people from Google", "filter out non-executives"
Examples of non-filtering instructions: "create a report", "format as bullet points", "analyze their backgrounds", "compare their experience"

Original search results:
`)
	b.Write(content)
	b.WriteString("\n\nUser instruction: \"")
	b.WriteString(instruction)
	b.WriteString("\"\n\nPlease process this data according to the instruction and return the response in the specified JSON format.")
	return b.String(), nil
}

// extractOutcome pulls the JSON object out of the model's reply. Models
// like to wrap their JSON in prose, so the region between the first '{'
// and the last '}' is tried; anything unusable falls back to an unmodified
// result set with the raw reply as the chat text.
func extractOutcome(responseText string, profiles []profile.RawRecord) Outcome {
	fallback := Outcome{
		ChatText:        responseText,
		FilteredResults: profiles,
		ResultsModified: false,
	}

	start := strings.Index(responseText, "{")
	end := strings.LastIndex(responseText, "}")
	if start == -1 || end <= start {
		return fallback
	}

	var outcome Outcome
	if err := json.Unmarshal([]byte(responseText[start:end+1]), &outcome); err != nil {
		return fallback
	}
	if outcome.ChatText == "" {
		return fallback
	}
	return outcome
}
