package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"CareCompanion/internal/model"
	"CareCompanion/pkg/errors"
	"CareCompanion/storage/redis"
)

type fakeSender struct {
	got []model.MissedDoseAlertMessage
	err error
}

func (f *fakeSender) SendMissedDoseSMS(_ context.Context, msg model.MissedDoseAlertMessage) error {
	f.got = append(f.got, msg)
	return f.err
}

type fakeResolver struct {
	ids    []int64
	missed bool
}

func (f *fakeResolver) ResolveOverdue(_ context.Context, id int64, _ time.Time) (bool, error) {
	f.ids = append(f.ids, id)
	return f.missed, nil
}

// 指向不可达地址，幂等检查失败后按约定继续处理
func useUnreachableRedis(t *testing.T) {
	t.Helper()
	c := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	redis.SetClient(c)
	t.Cleanup(func() {
		_ = c.Close()
		redis.SetClient(nil)
	})
}

func TestHandleMissedDoseBadPayload(t *testing.T) {
	err := handleMissedDose(context.Background(), []byte("{"))
	if !errors.IsNonRetryableError(err) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestHandleMissedDoseWithoutSender(t *testing.T) {
	SetAlertSender(nil)
	body, _ := json.Marshal(model.MissedDoseAlertMessage{MessageID: "msg_1"})
	if err := handleMissedDose(context.Background(), body); err == nil {
		t.Fatal("expected error without sender")
	}
}

func TestHandleMissedDoseSends(t *testing.T) {
	useUnreachableRedis(t)
	sender := &fakeSender{}
	SetAlertSender(sender)
	t.Cleanup(func() { SetAlertSender(nil) })

	body, _ := json.Marshal(model.MissedDoseAlertMessage{MessageID: "msg_2", AlertID: 9, Label: "Aspirin"})
	if err := handleMissedDose(context.Background(), body); err != nil {
		t.Fatalf("handleMissedDose: %v", err)
	}
	if len(sender.got) != 1 || sender.got[0].AlertID != 9 {
		t.Fatalf("sender got %+v", sender.got)
	}
}

func TestHandleOverdueSweep(t *testing.T) {
	useUnreachableRedis(t)
	resolver := &fakeResolver{missed: true}
	SetOverdueResolver(resolver)
	t.Cleanup(func() { SetOverdueResolver(nil) })

	body, _ := json.Marshal(model.OverdueSweepMessage{MessageID: "msg_3", OccurrenceID: 77})
	if err := handleOverdueSweep(context.Background(), body); err != nil {
		t.Fatalf("handleOverdueSweep: %v", err)
	}
	if len(resolver.ids) != 1 || resolver.ids[0] != 77 {
		t.Fatalf("resolver ids = %v", resolver.ids)
	}
}
