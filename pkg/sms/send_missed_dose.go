package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"CareCompanion/config"
	"CareCompanion/pkg/metrics"
)

// MissedDoseParams 漏服短信模板参数，模板形如
// "${name} 未按时完成 ${item}（${time}），请及时联系。"
type MissedDoseParams struct {
	Name string `json:"name"`
	Item string `json:"item"`
	Time string `json:"time"`
}

// 模板变量长度上限
const maxParamLen = 35

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxParamLen {
		return s
	}
	return string(r[:maxParamLen-1]) + "…"
}

// SendMissedDoseAlert 向照护者发送漏服短信
func SendMissedDoseAlert(ctx context.Context, phone string, params MissedDoseParams) (*SendResponse, error) {
	cfg := config.Cfg

	params.Name = truncate(params.Name)
	params.Item = truncate(params.Item)
	paramJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal template param: %w", err)
	}

	start := time.Now()
	resp, err := SendSingle(ctx, phone, cfg.SMSSignName, cfg.SMSTemplateCode, string(paramJSON))
	status := "success"
	if err != nil {
		status = "failed"
	}
	metrics.RecordSMSSent(ctx, "missed_dose", status, time.Since(start).Seconds())
	return resp, err
}
