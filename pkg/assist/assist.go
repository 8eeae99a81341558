// Package assist answers documentation questions with a Gemini model,
// grounding the prompt on search hits from the docs index.
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/joshhighet/r7/pkg/insight"
)

// ErrNoAPIKey means no Gemini key is configured.
var ErrNoAPIKey = errors.New("no gemini api key configured, set gemini_api_key with `r7 config set`")

// Assistant wraps a generative model session.
type Assistant struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// New builds an assistant. modelName defaults to gemini-1.5-flash.
func New(ctx context.Context, apiKey, modelName string) (*Assistant, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &Assistant{client: client, model: model}, nil
}

// ListModels returns the available gemini model names.
func (a *Assistant) ListModels(ctx context.Context) ([]string, error) {
	iter := a.client.ListModels(ctx)
	var names []string
	for {
		m, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		if strings.Contains(m.Name, "gemini") {
			names = append(names, strings.TrimPrefix(m.Name, "models/"))
		}
	}
	return names, nil
}

// Ask answers a question using doc search hits as context.
func (a *Assistant) Ask(ctx context.Context, question string, docs []insight.DocResult) (string, error) {
	prompt := BuildPrompt(question, docs)
	resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no response candidates")
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return "", fmt.Errorf("model returned no text")
	}
	return text, nil
}

// Close releases the underlying client.
func (a *Assistant) Close() {
	a.client.Close()
}

// BuildPrompt assembles the grounded question sent to the model.
func BuildPrompt(question string, docs []insight.DocResult) string {
	var b strings.Builder
	b.WriteString("You are a concise assistant for Rapid7 product documentation. ")
	b.WriteString("Answer the question using only the documentation excerpts below. ")
	b.WriteString("Cite the relevant page URLs. If the excerpts do not cover the question, say so.\n\n")
	for i, doc := range docs {
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s\n%s\n\n", i+1, doc.Title, doc.Product, doc.URL, doc.Description)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
