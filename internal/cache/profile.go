package cache

import (
	"context"
	"strconv"
	"time"
)

// PatientProfile 提醒会话需要的患者信息，照护者修改资料时失效
type PatientProfile struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	CaregiverID *int64 `json:"caregiver_id,omitempty"`
	Timezone    string `json:"timezone"`
}

var PatientProfileCache = NewProtectedCache("profile:patient", 6*time.Hour, RedisBreaker)

// GetPatientProfile 未命中或熔断时调用 load 回源并回写
// load 返回 nil 表示患者不存在，会写入空值缓存
func GetPatientProfile(ctx context.Context, patientID int64, load func(context.Context) (*PatientProfile, error)) (*PatientProfile, error) {
	id := strconv.FormatInt(patientID, 10)

	var p PatientProfile
	hit, empty, err := PatientProfileCache.Get(ctx, id, &p)
	if err == nil && hit {
		if empty {
			return nil, nil
		}
		return &p, nil
	}

	loaded, loadErr := load(ctx)
	if loadErr != nil {
		return nil, loadErr
	}
	if err == nil {
		var v interface{}
		if loaded != nil {
			v = loaded
		}
		// 回写失败不影响结果
		_ = PatientProfileCache.Set(ctx, id, v)
	}
	return loaded, nil
}

func InvalidatePatientProfile(ctx context.Context, patientID int64) error {
	return PatientProfileCache.Delete(ctx, strconv.FormatInt(patientID, 10))
}
