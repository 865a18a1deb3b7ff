// Package oracle turns a language model into a concept oracle: given a
// term it proposes related concepts as structured records, or a short
// prose explanation. Failures degrade (empty batch, fallback text)
// instead of propagating, so a flaky model never crashes a session.
package oracle

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mindforks/tangent/internal/config"
	"github.com/mindforks/tangent/internal/core/common"
	"github.com/mindforks/tangent/internal/core/graph"
	"github.com/mindforks/tangent/internal/llm"
)

// Mode selects how strict the related-concept generation is.
type Mode string

const (
	ModeDefault Mode = "default"
	ModePrecise Mode = "precise"
)

// ParseMode validates a wire-level mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDefault, ModePrecise:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode: %q", s)
	}
}

// FallbackExplanation is returned when the model cannot produce one.
const FallbackExplanation = "No explanation is available for this concept right now."

// DefaultMaxItems bounds a related-concept batch when config does not.
const DefaultMaxItems = 8

// Oracle is the surface the explorer consumes.
type Oracle interface {
	FetchRelated(ctx context.Context, term string, mode Mode) ([]graph.GeneratedItem, error)
	FetchExplanation(ctx context.Context, term string) (string, error)
}

// ConceptOracle implements Oracle on top of an llm.Client.
type ConceptOracle struct {
	LLM      llm.Client
	Prompts  config.OracleConfig
	MaxItems int
	Log      *zap.SugaredLogger
}

func New(client llm.Client, prompts config.OracleConfig, log *zap.SugaredLogger) *ConceptOracle {
	maxItems := prompts.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &ConceptOracle{
		LLM:      client,
		Prompts:  prompts,
		MaxItems: maxItems,
		Log:      log,
	}
}

type relatedResponse struct {
	Items []graph.GeneratedItem `json:"items"`
}

// FetchRelated asks the model for concepts related to term. Generation
// or parse failures are logged and yield an empty batch; the caller
// treats empty as "no expansion occurred".
func (o *ConceptOracle) FetchRelated(ctx context.Context, term string, mode Mode) ([]graph.GeneratedItem, error) {
	template := o.Prompts.RelatedPrompt
	if template == "" {
		template = defaultRelatedPrompt
	}
	prompt := fmt.Sprintf(template, term, o.MaxItems)

	if mode == ModePrecise {
		addendum := o.Prompts.PreciseAddendum
		if addendum == "" {
			addendum = defaultPreciseAddendum
		}
		prompt += addendum
	}

	response, err := o.LLM.Generate(ctx, prompt)
	if err != nil {
		o.Log.Warnw("related-concept generation failed", "term", term, "error", err)
		return nil, nil
	}

	parsed, err := common.ParseJSON[relatedResponse](response)
	if err != nil {
		o.Log.Warnw("related-concept response unparseable", "term", term, "error", err)
		return nil, nil
	}

	items := make([]graph.GeneratedItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if strings.TrimSpace(it.Label) == "" {
			continue
		}
		it.RelationType = string(graph.NormalizeRelationType(it.RelationType))
		items = append(items, it)
		if len(items) == o.MaxItems {
			break
		}
	}
	return items, nil
}

// FetchExplanation asks the model for a short prose explanation of
// term, degrading to a fixed fallback message on failure.
func (o *ConceptOracle) FetchExplanation(ctx context.Context, term string) (string, error) {
	template := o.Prompts.ExplanationPrompt
	if template == "" {
		template = defaultExplanationPrompt
	}

	response, err := o.LLM.Generate(ctx, fmt.Sprintf(template, term))
	if err != nil {
		o.Log.Warnw("explanation generation failed", "term", term, "error", err)
		return FallbackExplanation, nil
	}

	text := strings.TrimSpace(response)
	if text == "" {
		return FallbackExplanation, nil
	}
	return text, nil
}
