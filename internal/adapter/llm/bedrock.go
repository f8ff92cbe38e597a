//go:build bedrock

package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
	"go.opentelemetry.io/otel/trace"

	"mark1-ai/internal/domain"
	"mark1-ai/internal/infra/config"
	"mark1-ai/internal/infra/tracer"
)

// bedrockConverseAPI abstracts the Bedrock runtime methods for testability.
type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockProvider implements domain.LLMProvider via the AWS Bedrock Converse API.
type BedrockProvider struct {
	name   string
	model  string
	client bedrockConverseAPI
	logger *slog.Logger
}

// NewBedrockProvider creates a Bedrock provider using the default AWS credential chain.
func NewBedrockProvider(cfg config.ProviderConfig, logger *slog.Logger) (*BedrockProvider, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &BedrockProvider{
		name:   cfg.Name,
		model:  cfg.Model,
		client: bedrockruntime.NewFromConfig(awsCfg),
		logger: logger,
	}, nil
}

// newBedrockProviderWithClient creates a BedrockProvider with an injected client (for testing).
func newBedrockProviderWithClient(name, model string, client bedrockConverseAPI, logger *slog.Logger) *BedrockProvider {
	return &BedrockProvider{
		name:   name,
		model:  model,
		client: client,
		logger: logger,
	}
}

// Chat implements domain.LLMProvider.
func (p *BedrockProvider) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	ctx, span := tracer.StartSpan(ctx, "llm.chat",
		trace.WithAttributes(
			tracer.StringAttr("llm.provider", p.name),
			tracer.StringAttr("llm.model", req.Model),
		),
	)
	defer span.End()

	if req.Model == "" {
		req.Model = p.model
	}

	output, err := p.client.Converse(ctx, toBedrockConverseInput(req))
	if err != nil {
		tracer.RecordError(span, err)
		return nil, mapBedrockError(err)
	}

	result := fromBedrockConverseOutput(output, req.Model)
	setUsageAttrs(span, result.Usage)
	tracer.SetOK(span)
	logChatCompleted(p.logger, p.name, result)

	return result, nil
}

// Name implements domain.LLMProvider.
func (p *BedrockProvider) Name() string { return p.name }

// --- Bedrock request/response conversion ---

func toBedrockConverseInput(req domain.ChatRequest) *bedrockruntime.ConverseInput {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(req.Model),
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	input.InferenceConfig = &types.InferenceConfiguration{
		MaxTokens: aws.Int32(int32(maxTokens)),
	}
	if req.Temperature > 0 {
		input.InferenceConfig.Temperature = aws.Float32(float32(req.Temperature))
	}

	// Convert messages (extract system prompt)
	for _, m := range req.Messages {
		if m.Role == domain.RoleSystem {
			input.System = append(input.System,
				&types.SystemContentBlockMemberText{Value: m.Content},
			)
			continue
		}

		role := types.ConversationRoleUser
		if m.Role == domain.RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		input.Messages = append(input.Messages, types.Message{
			Role: role,
			Content: []types.ContentBlock{
				&types.ContentBlockMemberText{Value: m.Content},
			},
		})
	}

	return input
}

func fromBedrockConverseOutput(output *bedrockruntime.ConverseOutput, model string) *domain.ChatResponse {
	result := &domain.ChatResponse{
		Model:     model,
		CreatedAt: time.Now(),
	}

	if output.Usage != nil {
		in := int(aws.ToInt32(output.Usage.InputTokens))
		out := int(aws.ToInt32(output.Usage.OutputTokens))
		result.Usage = domain.Usage{
			PromptTokens:     in,
			CompletionTokens: out,
			TotalTokens:      in + out,
		}
	}

	msg := domain.Message{Role: domain.RoleAssistant}
	if outMsg, ok := output.Output.(*types.ConverseOutputMemberMessage); ok {
		for _, block := range outMsg.Value.Content {
			if b, ok := block.(*types.ContentBlockMemberText); ok {
				msg.Content += b.Value
			}
		}
	}

	result.Message = msg
	return result
}

// --- Error mapping ---

func mapBedrockError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "TooManyRequestsException":
			return fmt.Errorf("%w: %s", domain.ErrRateLimit, msg)
		case "AccessDeniedException", "UnrecognizedClientException":
			return fmt.Errorf("%w: %s", domain.ErrAuthInvalid, msg)
		case "ModelNotReadyException", "ServiceUnavailableException", "InternalServerException":
			return fmt.Errorf("%w: %s", domain.ErrProviderError, msg)
		}
	}

	return domain.WrapOp("bedrock", err)
}
