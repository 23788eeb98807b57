package errors

import (
	stderrors "errors"
	"fmt"
)

// 基础设施层错误，不直接暴露给客户端。
var (
	ErrDatabaseConnectionNil        = stderrors.New("database connection is nil")
	ErrRedisClientNil               = stderrors.New("redis client is nil")
	ErrTokenGeneratorNotInitialized = stderrors.New("token generator is not initialized")
	ErrUnexpectedSigningMethod      = stderrors.New("unexpected signing method")
	ErrInvalidToken                 = stderrors.New("invalid token")
	ErrInvalidTokenClaims           = stderrors.New("invalid token claims")
	ErrInvalidTokenType             = stderrors.New("invalid token type")
	ErrUserIDNotFound               = stderrors.New("user id not found in token")
	ErrUserNotFound                 = stderrors.New("user not found")
	ErrSignNameRequired             = stderrors.New("sms sign name is required")
	ErrTemplateCodeRequired         = stderrors.New("sms template code is required")
	ErrPhoneRequired                = stderrors.New("phone is required")
	ErrCircuitOpen                  = stderrors.New("circuit breaker is open")
)

// SkipMessageError 表示消息无需处理（重复、已失效），消费者应确认而非重试。
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return "skip message: " + e.Reason
}

func IsSkipMessageError(err error) bool {
	var skip *SkipMessageError
	return stderrors.As(err, &skip)
}

// NonRetryableError 表示第三方返回的配置类错误，重试不会成功。
type NonRetryableError struct {
	Code    string
	Message string
	Hint    string
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("%s: %s - %s", e.Hint, e.Code, e.Message)
}

func NewNonRetryableError(code, message, hint string) error {
	return &NonRetryableError{Code: code, Message: message, Hint: hint}
}

func IsNonRetryableError(err error) bool {
	var nr *NonRetryableError
	return stderrors.As(err, &nr)
}
