// Package report renders classification results into report prose via the
// Anthropic API. The classification is final before the writer runs; a
// writer failure never changes the recommended pathway.
package report

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/atacama-group/seia-cli/internal/model"
)

// Messenger is the single Anthropic operation the writer needs. Satisfied
// by the SDK-backed client; tests substitute a stub.
type Messenger interface {
	CreateMessage(ctx context.Context, model string, maxTokens int64, system, prompt string) (string, error)
}

// Writer turns structured justifications into report prose.
type Writer struct {
	client    Messenger
	model     string
	maxTokens int64
	limiter   *rate.Limiter
}

// NewWriter creates a writer around the given Messenger. requestsPerMinute
// bounds the API call rate across concurrent batch analyses.
func NewWriter(client Messenger, modelID string, maxTokens int64, requestsPerMinute int) *Writer {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	return &Writer{
		client:    client,
		model:     modelID,
		maxTokens: maxTokens,
		limiter:   rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60), 1),
	}
}

const systemPrompt = `Eres un consultor ambiental chileno. Redacta, en español ` +
	`formal y conciso, la sección de justificación de una evaluación de ingreso ` +
	`al SEIA. Usa exclusivamente los antecedentes entregados; no inventes datos ` +
	`ni cifras. No modifiques la recomendación de instrumento.`

// Write renders prose for one classification result.
func (w *Writer) Write(ctx context.Context, res *model.ClassificationResult) (string, error) {
	if res == nil {
		return "", eris.New("report: nil result")
	}
	if err := w.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "report: rate limit wait")
	}

	text, err := w.client.CreateMessage(ctx, w.model, w.maxTokens, systemPrompt, buildPrompt(res))
	if err != nil {
		return "", eris.Wrapf(err, "report: run %s", res.RunID)
	}

	zap.L().Info("report: prose generated",
		zap.String("run_id", res.RunID),
		zap.Int("chars", len(text)),
	)
	return text, nil
}

// buildPrompt flattens the structured justification into the user message.
func buildPrompt(res *model.ClassificationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Proyecto: %s\n", res.ProjectID)
	fmt.Fprintf(&b, "Instrumento recomendado: %s\n", res.Pathway)
	fmt.Fprintf(&b, "Confianza: %.2f (%s)\n", res.Confidence, res.Tier)
	fmt.Fprintf(&b, "Puntaje de matriz: %.1f / 100\n\n", res.MatrixScore)

	b.WriteString("Antecedentes:\n")
	for _, r := range res.Justification {
		if r.Letter != "" {
			fmt.Fprintf(&b, "- [Art. 11 letra %s] %s\n", r.Letter, r.Summary)
		} else {
			fmt.Fprintf(&b, "- %s\n", r.Summary)
		}
		for _, ev := range r.Evidence {
			fmt.Fprintf(&b, "  * %s\n", ev)
		}
	}

	if len(res.MissingInputs) > 0 {
		b.WriteString("\nAntecedentes faltantes (mencionar como limitación):\n")
		for _, m := range res.MissingInputs {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}
	return b.String()
}

// sdkMessenger implements Messenger with the official anthropic-sdk-go.
type sdkMessenger struct {
	client sdk.Client
}

// NewMessenger creates an SDK-backed Messenger.
func NewMessenger(apiKey string) Messenger {
	return &sdkMessenger{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
	}
}

func (m *sdkMessenger) CreateMessage(ctx context.Context, modelID string, maxTokens int64, system, prompt string) (string, error) {
	msg, err := m.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(modelID),
		MaxTokens: maxTokens,
		System:    []sdk.TextBlockParam{{Text: system}},
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(prompt))},
	})
	if err != nil {
		return "", eris.Wrap(err, "report: create message")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
