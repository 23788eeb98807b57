package sms

import (
	"context"
	"encoding/json"
	"fmt"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	openapiutil "github.com/alibabacloud-go/openapi-util/service"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
	credential "github.com/aliyun/credentials-go/credentials"
	"go.uber.org/zap"

	"CareCompanion/pkg/errors"
	"CareCompanion/pkg/logger"
)

// 配置类错误码，重试不会成功
var nonRetryableCodes = map[string]struct{}{
	"isv.SMS_SIGNATURE_ILLEGAL":       {},
	"isv.SMS_TEMPLATE_ILLEGAL":        {},
	"isv.TEMPLATE_MISSING_PARAMETERS": {},
	"isv.INVALID_PARAMETERS":          {},
	"isv.MOBILE_NUMBER_ILLEGAL":       {},
	"isv.AMOUNT_NOT_ENOUGH":           {},
	"isv.ACCOUNT_NOT_EXISTS":          {},
	"isv.ACCOUNT_ABNORMAL":            {},
	"isv.DENY_IP_RANGE":               {},
	"isp.RAM_PERMISSION_DENY":         {},
}

func isNonRetryableError(code string) bool {
	_, ok := nonRetryableCodes[code]
	return ok
}

type AliyunClient struct {
	client *openapi.Client
}

// NewAliyunClient 凭据从 ALIBABA_CLOUD_ACCESS_KEY_ID / ALIBABA_CLOUD_ACCESS_KEY_SECRET 等默认链读取
func NewAliyunClient() (*AliyunClient, error) {
	cred, err := credential.NewCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create aliyun credential: %w", err)
	}

	client, err := openapi.NewClient(&openapi.Config{
		Credential: cred,
		Endpoint:   tea.String("dysmsapi.aliyuncs.com"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aliyun client: %w", err)
	}

	return &AliyunClient{client: client}, nil
}

func (c *AliyunClient) createApiInfo(action string) *openapi.Params {
	return &openapi.Params{
		Action:      tea.String(action),
		Version:     tea.String("2017-05-25"),
		Protocol:    tea.String("HTTPS"),
		Method:      tea.String("POST"),
		AuthType:    tea.String("AK"),
		Style:       tea.String("RPC"),
		Pathname:    tea.String("/"),
		ReqBodyType: tea.String("json"),
		BodyType:    tea.String("json"),
	}
}

func (c *AliyunClient) SendSingle(ctx context.Context, phone, signName, templateCode, templateParam string) (*SendResponse, error) {
	if signName == "" {
		return nil, errors.ErrSignNameRequired
	}
	if templateCode == "" {
		return nil, errors.ErrTemplateCodeRequired
	}
	if phone == "" {
		return nil, errors.ErrPhoneRequired
	}

	queries := map[string]interface{}{
		"PhoneNumbers":  tea.String(phone),
		"SignName":      tea.String(signName),
		"TemplateCode":  tea.String(templateCode),
		"TemplateParam": tea.String(templateParam),
	}
	request := &openapi.OpenApiRequest{
		Query: openapiutil.Query(queries),
	}

	resp, err := c.client.CallApi(c.createApiInfo("SendSms"), request, &util.RuntimeOptions{})
	if err != nil {
		logger.Logger.Error("Failed to send SMS",
			zap.String("template", templateCode),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to send SMS: %w", err)
	}

	return parseSendResponse(resp, templateCode)
}

// parseSendResponse 解析 CallApi 返回的 map，包含 statusCode 与 body
func parseSendResponse(resp map[string]interface{}, templateCode string) (*SendResponse, error) {
	if raw, ok := resp["statusCode"]; ok && raw != nil {
		statusCode, err := parseStatusCode(raw)
		if err != nil {
			return nil, err
		}
		if statusCode != 200 {
			logger.Logger.Error("SMS API returned error",
				zap.Int("status_code", statusCode),
				zap.Any("body", resp["body"]),
			)
			return nil, fmt.Errorf("SMS API error: statusCode=%d", statusCode)
		}
	}

	response := &SendResponse{
		Provider: "aliyun",
		Template: templateCode,
	}

	if resp["body"] == nil {
		return response, nil
	}

	bodyBytes, err := json.Marshal(resp["body"])
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response body: %w", err)
	}
	var body struct {
		BizID     string `json:"BizId"`
		Code      string `json:"Code"`
		Message   string `json:"Message"`
		RequestID string `json:"RequestId"`
	}
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	response.MessageID = body.BizID
	response.Code = body.Code
	response.StatusCode = body.Code
	response.Message = body.Message
	response.RequestID = body.RequestID

	if response.Code != "OK" {
		logger.Logger.Error("SMS send failed",
			zap.String("code", response.Code),
			zap.String("message", response.Message),
			zap.String("request_id", response.RequestID),
		)
		if isNonRetryableError(response.Code) {
			return response, errors.NewNonRetryableError(response.Code, response.Message, "SMS configuration error")
		}
		return response, fmt.Errorf("SMS send failed: %s - %s", response.Code, response.Message)
	}

	return response, nil
}

func parseStatusCode(v interface{}) (int, error) {
	switch s := v.(type) {
	case int:
		return s, nil
	case int32:
		return int(s), nil
	case int64:
		return int(s), nil
	case float64:
		return int(s), nil
	case *int:
		if s != nil {
			return *s, nil
		}
	case *int32:
		if s != nil {
			return int(*s), nil
		}
	case *int64:
		if s != nil {
			return int(*s), nil
		}
	}
	return 0, fmt.Errorf("unexpected statusCode type %T", v)
}
