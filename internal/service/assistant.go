package service

// 语音模式对话代理，转发到 OpenAI 兼容的 chat completion 接口

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"CareCompanion/config"
	"CareCompanion/internal/model/dto"
	"CareCompanion/pkg/errors"
	"CareCompanion/pkg/logger"
	"CareCompanion/storage/database"
)

const (
	maxHistoryTurns  = 10
	maxMessageLength = 2000
)

const assistantPromptTemplate = `You are a calm, friendly companion for %s, an older adult living with memory loss.
Use short sentences and simple words. Be patient and reassuring.
Never give medical advice or change medication instructions; suggest asking the caregiver instead.
Current local time: %s.`

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type AssistantService struct {
	client    chatCompleter
	model     string
	maxTokens int
}

var (
	assistantService *AssistantService
	assistantOnce    sync.Once
)

// Assistant 未配置 OPENAI_API_KEY 时 client 为空，调用返回 ASSISTANT_UNAVAILABLE
func Assistant() *AssistantService {
	assistantOnce.Do(func() {
		cfg := config.Cfg
		assistantService = &AssistantService{model: cfg.OpenAIModel, maxTokens: cfg.OpenAIMaxTokens}
		if cfg.OpenAIAPIKey == "" {
			return
		}
		oc := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" {
			oc.BaseURL = cfg.OpenAIBaseURL
		}
		assistantService.client = openai.NewClientWithConfig(oc)
	})
	return assistantService
}

func (s *AssistantService) Chat(ctx context.Context, patientID int64, req dto.ChatRequest) (*dto.ChatResponse, error) {
	if s.client == nil {
		return nil, errors.AssistantUnavailable
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, errors.AssistantEmptyPrompt
	}
	if len(msg) > maxMessageLength {
		return nil, errors.InvalidRequest
	}

	name, loc := "the user", config.Cfg.Location()
	if db := database.DB(); db != nil {
		if profile, err := loadPatientProfile(ctx, db, patientID); err == nil && profile != nil {
			if profile.Name != "" {
				name = profile.Name
			}
			loc = profileLocation(profile)
		}
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    buildChatMessages(name, time.Now().In(loc), req.History, msg),
		MaxTokens:   s.maxTokens,
		Temperature: 0.6,
	})
	if err != nil {
		logger.Logger.Error("Assistant completion failed",
			zap.Int64("patient_id", patientID),
			zap.Error(err),
		)
		return nil, errors.AssistantUnavailable
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from assistant")
	}

	return &dto.ChatResponse{
		Reply: strings.TrimSpace(resp.Choices[0].Message.Content),
		Model: resp.Model,
	}, nil
}

// buildChatMessages 只保留最近的对话轮次，忽略未知角色
func buildChatMessages(name string, now time.Time, history []dto.ChatMessage, message string) []openai.ChatCompletionMessage {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: fmt.Sprintf(assistantPromptTemplate, name, now.Format("Monday 3:04 PM")),
	})

	for _, h := range history {
		var role string
		switch h.Role {
		case "user":
			role = openai.ChatMessageRoleUser
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		default:
			continue
		}
		if strings.TrimSpace(h.Content) == "" {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: h.Content})
	}

	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})
}
