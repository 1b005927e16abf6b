// Package ai provides the transcript classification collaborator.
// This is part of the platform layer and contains no business logic.
package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Classifier labels a call transcript with a single disposition label.
type Classifier interface {
	Classify(ctx context.Context, transcript string) (string, error)
}

// Labels the classifier may return. Anything else from the model is
// mapped to LabelIncomplete.
const (
	LabelInterested   = "Interested"
	LabelUninterested = "Uninterested"
	LabelScheduled    = "Scheduled"
	LabelCallBack     = "Call back"
	LabelVoicemail    = "Voicemail"
	LabelIncomplete   = "Incomplete call"
)

var knownLabels = []string{
	LabelInterested,
	LabelUninterested,
	LabelScheduled,
	LabelCallBack,
	LabelVoicemail,
	LabelIncomplete,
}

const classifyPrompt = `You review transcripts of outbound sales calls.
Reply with exactly one of these labels and nothing else:
Interested, Uninterested, Scheduled, Call back, Voicemail, Incomplete call.

Transcript:
%s`

// GeminiClassifier classifies transcripts with the Gemini API.
type GeminiClassifier struct {
	client *genai.Client
	model  string
}

// NewGeminiClassifier creates a classifier using the given API key and model.
func NewGeminiClassifier(ctx context.Context, apiKey, model string) (*GeminiClassifier, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClassifier{client: client, model: model}, nil
}

// Classify returns one disposition label for the transcript.
func (g *GeminiClassifier) Classify(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return LabelIncomplete, nil
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(fmt.Sprintf(classifyPrompt, transcript)), nil)
	if err != nil {
		return "", err
	}

	return NormalizeLabel(resp.Text()), nil
}

// NormalizeLabel maps raw model output onto the closed label set.
func NormalizeLabel(raw string) string {
	cleaned := strings.TrimSpace(raw)
	for _, label := range knownLabels {
		if strings.EqualFold(cleaned, label) {
			return label
		}
	}
	return LabelIncomplete
}

// NoopClassifier is used when no API key is configured. It labels every
// transcript as incomplete so the pipeline still records a value.
type NoopClassifier struct{}

// Classify always returns LabelIncomplete.
func (NoopClassifier) Classify(_ context.Context, _ string) (string, error) {
	return LabelIncomplete, nil
}
