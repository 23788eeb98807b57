package model

// Role 用户角色
type Role string

const (
	RolePatient   Role = "patient"
	RoleCaregiver Role = "caregiver"
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleCaregiver
}

// User 用户模型，患者与照护者共用一张表
type User struct {
	BaseModel
	Nickname    string  `gorm:"type:varchar(64);not null;default:''" json:"nickname"`
	Role        Role    `gorm:"type:varchar(16);not null;default:'patient';index:idx_users_role" json:"role"`
	PhoneCipher []byte  `gorm:"type:bytea" json:"-"`                // 手机号密文，不对外暴露
	PhoneHash   *string `gorm:"uniqueIndex;type:char(64)" json:"-"` // 手机号哈希，用于查询
	Timezone    string  `gorm:"type:varchar(64);not null;default:'Asia/Shanghai'" json:"timezone"`

	// 患者的主照护者，漏服告警发送给此用户
	CaregiverID *int64 `gorm:"index:idx_users_caregiver" json:"caregiver_id,omitempty"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

func (u *User) IsCaregiver() bool {
	return u.Role == RoleCaregiver
}

// CaresFor 判断该照护者是否负责此患者
func (u *User) CaresFor(patient *User) bool {
	return u.IsCaregiver() && patient.CaregiverID != nil && *patient.CaregiverID == u.ID
}
