package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/sethvargo/go-retry"

	"github.com/zhouzirui/collectwise/backend/internal/config"
	labels "github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
	"github.com/zhouzirui/collectwise/backend/internal/model/persona"
	"github.com/zhouzirui/collectwise/backend/internal/negotiation"
)

var (
	errEmptyResponse   = errors.New("model returned empty content")
	errUnrecognisedTag = errors.New("model output has no recognised label")
)

var (
	_ negotiation.Classifier = (*Service)(nil)
	_ negotiation.Generator  = (*Service)(nil)
)

// Service 基于 eino 链实现谈判引擎所需的分类器与文本生成器。
type Service struct {
	prompts *PromptManager
	cfg     config.AIConfig
	chain   compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the model from configuration and compiles the chain.
func NewService(ctx context.Context, personas persona.Store, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, personas, cfg)
}

// NewServiceWithModel 使用现成的模型实例构建服务，测试中可注入假模型。
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel, personas persona.Store, cfg config.AIConfig) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile negotiation chain: %w", err)
	}

	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}

	return &Service{
		prompts: NewPromptManager(personas, cfg.HistoryLimit),
		cfg:     cfg,
		chain:   runnable,
	}, nil
}

// ClassifyTurn implements negotiation.Classifier.
func (s *Service) ClassifyTurn(ctx context.Context, in negotiation.TurnInput) (negotiation.Signals, error) {
	content, err := s.invoke(ctx, "classify_turn", map[string]any{
		"system": turnClassifierPrompt,
		"query":  s.prompts.TurnQuery(in),
	})
	if err != nil {
		return negotiation.Signals{}, err
	}

	payload, err := parseClassifierOutput(content)
	if err != nil {
		return negotiation.Signals{}, fmt.Errorf("classify_turn: %w", err)
	}

	intent, ok := labels.ParseIntent(payload.Intent)
	if !ok {
		return negotiation.Signals{}, fmt.Errorf("classify_turn: intent %q: %w", payload.Intent, errUnrecognisedTag)
	}
	emotion, _ := labels.ParseEmotionalState(payload.EmotionalState)
	threat, _ := labels.ParseThreatLevel(payload.SecurityThreat)

	return negotiation.Signals{Intent: intent, EmotionalState: emotion, SecurityThreat: threat}, nil
}

// ClassifyResponse implements negotiation.Classifier.
func (s *Service) ClassifyResponse(ctx context.Context, in negotiation.ResponseInput) (labels.ResponseClass, error) {
	content, err := s.invoke(ctx, "classify_response", map[string]any{
		"system": responseClassifierPrompt,
		"query":  s.prompts.ResponseQuery(in),
	})
	if err != nil {
		return labels.ResponseUnknown, err
	}

	class, ok := firstLabel(content, labels.ParseResponseClass)
	if !ok {
		return labels.ResponseUnknown, fmt.Errorf("classify_response: %w", errUnrecognisedTag)
	}
	return class, nil
}

// ValidateCounterOffer implements negotiation.Classifier.
func (s *Service) ValidateCounterOffer(ctx context.Context, in negotiation.CounterOfferInput) (labels.PlanValidity, error) {
	content, err := s.invoke(ctx, "validate_counter_offer", map[string]any{
		"system": counterOfferPrompt,
		"query":  s.prompts.CounterOfferQuery(in),
	})
	if err != nil {
		return labels.ValidityUnknown, err
	}

	validity, ok := firstLabel(content, labels.ParsePlanValidity)
	if !ok {
		return labels.ValidityUnknown, fmt.Errorf("validate_counter_offer: %w", errUnrecognisedTag)
	}
	return validity, nil
}

// GenerateOpening implements negotiation.Generator.
func (s *Service) GenerateOpening(ctx context.Context, in negotiation.OpeningInput) (string, error) {
	content, err := s.invoke(ctx, "generate_opening", map[string]any{
		"system": s.prompts.OpeningSystemPrompt(in.Intent),
		"query":  s.prompts.OpeningQuery(in),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// GenerateText implements negotiation.Generator.
func (s *Service) GenerateText(ctx context.Context, in negotiation.GenerationInput) (string, error) {
	content, err := s.invoke(ctx, "generate_text", map[string]any{
		"system": s.prompts.GenerationSystemPrompt(in.Intent),
		"query":  s.prompts.GenerationQuery(in),
	})
	if err != nil {
		return "", err
	}

	log.Printf("[ai] generated reply intent=%s attempt=%d length=%d", in.Intent, in.AttemptCount, len(content))
	return strings.TrimSpace(content), nil
}

// invoke 运行链并按指数退避重试瞬时错误；上下文取消不会重试。
func (s *Service) invoke(ctx context.Context, operation string, input map[string]any) (string, error) {
	backoff := retry.WithMaxRetries(uint64(s.cfg.MaxAttempts-1), retry.NewExponential(s.cfg.RetryDelay))

	var content string
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		msg, err := s.chain.Invoke(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[ai] %s attempt=%d failed: %v", operation, attempt, err)
			return retry.RetryableError(err)
		}
		if msg == nil || strings.TrimSpace(msg.Content) == "" {
			log.Printf("[ai] %s attempt=%d returned empty content", operation, attempt)
			return retry.RetryableError(errEmptyResponse)
		}

		content = msg.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s failed after %d attempt(s): %w", operation, attempt, err)
	}
	return content, nil
}

type classifierPayload struct {
	Intent         string `json:"intent"`
	EmotionalState string `json:"emotional_state"`
	SecurityThreat string `json:"security_threat"`
}

// parseClassifierOutput 解析大模型返回的 JSON。
func parseClassifierOutput(content string) (*classifierPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// firstLabel 先按整体解析，再逐行、逐词查找第一个可识别的标签。
func firstLabel[T any](content string, parse func(string) (T, bool)) (T, bool) {
	trimmed := strings.TrimSpace(content)
	if v, ok := parse(trimmed); ok {
		return v, true
	}

	for _, line := range strings.Split(trimmed, "\n") {
		if v, ok := parse(line); ok {
			return v, true
		}
	}

	fields := strings.FieldsFunc(trimmed, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	for _, field := range fields {
		if v, ok := parse(field); ok {
			return v, true
		}
	}

	var zero T
	return zero, false
}
