package sms

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"CareCompanion/config"
	"CareCompanion/pkg/logger"
)

// Client 短信客户端
type Client interface {
	// SendSingle templateParam 为 JSON 字符串
	SendSingle(ctx context.Context, phone, signName, templateCode, templateParam string) (*SendResponse, error)
}

// SendResponse 短信发送结果
type SendResponse struct {
	MessageID  string // BizId
	StatusCode string
	Code       string
	Message    string
	RequestID  string
	Provider   string
	Template   string
}

var (
	smsClient Client
	smsOnce   sync.Once
	smsErr    error
)

// Init 按 SMS_PROVIDER 初始化客户端
func Init() error {
	smsOnce.Do(func() {
		cfg := config.Cfg

		switch cfg.SMSProvider {
		case "aliyun":
			smsClient, smsErr = NewAliyunClient()
		case "mock":
			smsClient = NewMockClient()
		default:
			smsErr = fmt.Errorf("unsupported SMS provider: %s", cfg.SMSProvider)
		}

		if smsErr != nil {
			logger.Logger.Error("Failed to initialize SMS client", zap.Error(smsErr))
			return
		}

		logger.Logger.Info("SMS client initialized successfully",
			zap.String("provider", cfg.SMSProvider),
		)
	})

	return smsErr
}

// SetClient 替换全局客户端，测试用
func SetClient(c Client) {
	smsClient = c
}

func GetClient() Client {
	if smsClient == nil {
		panic("SMS client not initialized, call sms.Init() first")
	}
	return smsClient
}

func SendSingle(ctx context.Context, phone, signName, templateCode, templateParam string) (*SendResponse, error) {
	return GetClient().SendSingle(ctx, phone, signName, templateCode, templateParam)
}
