package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 60 * time.Second
	// DefaultRequestsPerMinute paces outbound calls from one worker process
	DefaultRequestsPerMinute = 20
	// DefaultMaxCompletionTokens bounds the length of a suggestion
	DefaultMaxCompletionTokens = 700

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIConfig configures an OpenAIProvider
type OpenAIConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	RequestsPerMinute int
	Logger            *zap.Logger
	DebugMode         bool
}

// OpenAIProvider implements SuggestionProvider against any OpenAI-compatible chat API
type OpenAIProvider struct {
	client    openai.Client
	model     string
	limiter   *rate.Limiter
	logger    *zap.Logger
	debugMode bool
}

var _ SuggestionProvider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
		// Retries are owned by the job queue
		option.WithMaxRetries(0),
	)

	return &OpenAIProvider{
		client:    client,
		model:     cfg.Model,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		logger:    cfg.Logger,
		debugMode: cfg.DebugMode,
	}
}

// Model returns the configured model name
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Suggest asks the model for coping suggestions based on the request's history
func (p *OpenAIProvider) Suggest(ctx context.Context, req *SuggestionRequest) (*SuggestionResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	prompt := BuildSuggestionPrompt(req)
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(DefaultMaxCompletionTokens),
	}

	userID := ExtractUserID(ctx)
	if userID == "" {
		userID = req.UserID.String()
	}
	fields := []zap.Field{
		zap.String("operation", "suggest"),
		zap.String("model", p.model),
		zap.String("user_id", userID),
		zap.String("job_id", ExtractJobID(ctx)),
	}

	if p.debugMode {
		p.logger.Debug("llm_api_request", append(fields,
			zap.Int("prompt_length", len(prompt)),
			zap.Int("event_count", len(req.Events)),
			zap.String("prompt_preview", SanitizePreview(prompt, true)),
		)...)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	latency := time.Since(start)
	if err != nil {
		p.logger.Warn("llm_api_error", append(fields,
			zap.Error(err),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)...)
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to generate suggestion: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to generate suggestion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New(ErrNoChoicesInResponse)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, ErrEmptySuggestion
	}

	model := resp.Model
	if model == "" {
		model = p.model
	}

	p.logger.Info("llm_api_response", append(fields,
		zap.Int("response_length", len(content)),
		zap.Int64("latency_ms", latency.Milliseconds()),
	)...)
	if p.debugMode {
		p.logger.Debug("llm_api_response_content", append(fields,
			zap.String("response_preview", SanitizePreview(content, true)),
		)...)
	}

	return &SuggestionResponse{Markdown: content, Model: model}, nil
}

// RegisterOpenAI registers the OpenAI provider with the registry
func RegisterOpenAI(registry *ProviderRegistry, logger *zap.Logger, debugMode bool) {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry.Register("openai", func(config map[string]string) (SuggestionProvider, error) {
		apiKey := config["api_key"]
		if apiKey == "" {
			return nil, fmt.Errorf("openai api_key is required")
		}

		var rpm int
		if v := config["requests_per_minute"]; v != "" {
			if _, err := fmt.Sscanf(v, "%d", &rpm); err != nil {
				return nil, fmt.Errorf("invalid requests_per_minute %q: %w", v, err)
			}
		}

		logger.Info("openai_provider_configured",
			zap.String("api_key", SanitizeAPIKey(apiKey)),
			zap.String("model", config["model"]),
			zap.String("base_url", config["base_url"]),
			zap.Int("requests_per_minute", rpm),
		)

		return NewOpenAIProvider(OpenAIConfig{
			APIKey:            apiKey,
			BaseURL:           config["base_url"],
			Model:             config["model"],
			RequestsPerMinute: rpm,
			Logger:            logger,
			DebugMode:         debugMode,
		}), nil
	})
}
