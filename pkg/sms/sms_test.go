package sms

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"CareCompanion/pkg/errors"
)

func TestParseSendResponse(t *testing.T) {
	tests := []struct {
		name         string
		resp         map[string]interface{}
		wantErr      bool
		nonRetryable bool
		wantBizID    string
	}{
		{
			name: "ok",
			resp: map[string]interface{}{
				"statusCode": 200,
				"body":       map[string]interface{}{"Code": "OK", "BizId": "biz-1", "RequestId": "req-1"},
			},
			wantBizID: "biz-1",
		},
		{
			name:    "http error",
			resp:    map[string]interface{}{"statusCode": float64(500)},
			wantErr: true,
		},
		{
			name: "config error",
			resp: map[string]interface{}{
				"statusCode": 200,
				"body":       map[string]interface{}{"Code": "isv.SMS_TEMPLATE_ILLEGAL", "Message": "bad template"},
			},
			wantErr:      true,
			nonRetryable: true,
		},
		{
			name: "throttled",
			resp: map[string]interface{}{
				"statusCode": 200,
				"body":       map[string]interface{}{"Code": "isv.BUSINESS_LIMIT_CONTROL"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := parseSendResponse(tt.resp, "SMS_1")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.IsNonRetryableError(err) != tt.nonRetryable {
				t.Fatalf("non-retryable = %v, want %v", errors.IsNonRetryableError(err), tt.nonRetryable)
			}
			if tt.wantBizID != "" && resp.MessageID != tt.wantBizID {
				t.Errorf("MessageID = %q, want %q", resp.MessageID, tt.wantBizID)
			}
		})
	}
}

func TestSendMissedDoseAlert(t *testing.T) {
	mock := NewMockClient()
	SetClient(mock)
	t.Cleanup(func() { SetClient(nil) })

	long := strings.Repeat("药", 50)
	if _, err := SendMissedDoseAlert(context.Background(), "13800138000", MissedDoseParams{
		Name: "Mom",
		Item: long,
		Time: "9:00 AM",
	}); err != nil {
		t.Fatalf("SendMissedDoseAlert: %v", err)
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	var got MissedDoseParams
	if err := json.Unmarshal([]byte(calls[0].TemplateParam), &got); err != nil {
		t.Fatalf("template param: %v", err)
	}
	if got.Name != "Mom" || got.Time != "9:00 AM" {
		t.Errorf("params = %+v", got)
	}
	if n := len([]rune(got.Item)); n != maxParamLen {
		t.Errorf("item length = %d, want %d", n, maxParamLen)
	}

	mock.FailNext = true
	if _, err := SendMissedDoseAlert(context.Background(), "13800138000", MissedDoseParams{Name: "Mom"}); err == nil {
		t.Fatal("expected failure")
	}
}
