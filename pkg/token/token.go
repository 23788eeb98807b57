package token

import (
	"fmt"
	"strconv"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/hertz-contrib/jwt"

	"CareCompanion/config"
	"CareCompanion/pkg/errors"
)

const (
	IdentityKey = "uid"
	RoleKey     = "role"
	typeKey     = "type"
	typeRefresh = "refresh"
)

// middleware 与签发共用同一个实例
var sharedGenerator *jwt.HertzJWTMiddleware

func Init() error {
	var err error
	sharedGenerator, err = jwt.New(&jwt.HertzJWTMiddleware{
		Key:         []byte(config.Cfg.JWTSecret),
		Timeout:     time.Duration(config.Cfg.JWTExpireMinutes) * time.Minute,
		MaxRefresh:  time.Duration(config.Cfg.JWTRefreshDays) * 24 * time.Hour,
		IdentityKey: IdentityKey,
		TimeFunc:    time.Now,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token generator: %w", err)
	}

	return nil
}

// GetGenerator 获取共享的 token 生成器
func GetGenerator() *jwt.HertzJWTMiddleware {
	return sharedGenerator
}

// Pair 一次签发的 token 对
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// GenerateTokenPair 签发 access token 与 refresh token，两者都带角色
func GenerateTokenPair(userID int64, role string) (Pair, error) {
	if sharedGenerator == nil {
		return Pair{}, errors.ErrTokenGeneratorNotInitialized
	}

	now := time.Now()
	uid := strconv.FormatInt(userID, 10)
	accessTTL := time.Duration(config.Cfg.JWTExpireMinutes) * time.Minute

	access, err := sign(jwtv5.MapClaims{
		IdentityKey: uid,
		RoleKey:     role,
		"iat":       now.Unix(),
		"exp":       now.Add(accessTTL).Unix(),
	})
	if err != nil {
		return Pair{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh, err := sign(jwtv5.MapClaims{
		IdentityKey: uid,
		RoleKey:     role,
		typeKey:     typeRefresh,
		"iat":       now.Unix(),
		"exp":       now.Add(time.Duration(config.Cfg.JWTRefreshDays) * 24 * time.Hour).Unix(),
	})
	if err != nil {
		return Pair{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return Pair{AccessToken: access, RefreshToken: refresh, ExpiresIn: int(accessTTL.Seconds())}, nil
}

func sign(claims jwtv5.MapClaims) (string, error) {
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte(config.Cfg.JWTSecret))
}

// ValidateRefreshToken 校验 refresh token，返回用户 ID 与角色
func ValidateRefreshToken(tokenString string) (int64, string, error) {
	parsed, err := jwtv5.Parse(tokenString, func(t *jwtv5.Token) (interface{}, error) {
		if t.Method != jwtv5.SigningMethodHS256 {
			return nil, fmt.Errorf("%w: %v, expected HS256", errors.ErrUnexpectedSigningMethod, t.Header["alg"])
		}
		return []byte(config.Cfg.JWTSecret), nil
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !parsed.Valid {
		return 0, "", errors.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwtv5.MapClaims)
	if !ok {
		return 0, "", errors.ErrInvalidTokenClaims
	}
	if t, _ := claims[typeKey].(string); t != typeRefresh {
		return 0, "", errors.ErrInvalidTokenType
	}

	userID, err := ParseUserID(claims[IdentityKey])
	if err != nil {
		return 0, "", err
	}
	role, _ := claims[RoleKey].(string)
	return userID, role, nil
}

// ParseUserID 兼容字符串与数字形式的 uid claim
func ParseUserID(v interface{}) (int64, error) {
	switch id := v.(type) {
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return 0, errors.ErrUserIDNotFound
		}
		return n, nil
	case float64:
		return int64(id), nil
	default:
		return 0, errors.ErrUserIDNotFound
	}
}
