package utils

import (
	"regexp"
)

var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// ValidatePhone 中国大陆手机号
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
