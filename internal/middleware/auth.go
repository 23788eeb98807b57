package middleware

import (
	"context"
	"fmt"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/jwt"

	"CareCompanion/internal/model"
	"CareCompanion/pkg/errors"
	"CareCompanion/pkg/response"
	"CareCompanion/pkg/token"
)

const IdentityKey = token.IdentityKey

// Identity 认证后写入请求上下文的身份
type Identity struct {
	UserID int64
	Role   model.Role
}

var authMiddleware *jwt.HertzJWTMiddleware

func initAuthMiddleware() error {
	shared := token.GetGenerator()
	if shared == nil {
		return fmt.Errorf("token generator not initialized, call token.Init() first")
	}

	authMiddleware = &jwt.HertzJWTMiddleware{
		Realm:       "CareCompanion API",
		Key:         shared.Key,
		Timeout:     shared.Timeout,
		MaxRefresh:  shared.MaxRefresh,
		IdentityKey: shared.IdentityKey,
		TimeFunc:    shared.TimeFunc,

		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			claims := jwt.ExtractClaims(ctx, c)
			uid, err := token.ParseUserID(claims[IdentityKey])
			if err != nil {
				return nil
			}
			role, _ := claims[token.RoleKey].(string)
			return &Identity{UserID: uid, Role: model.Role(role)}
		},

		Authorizator: func(data interface{}, ctx context.Context, c *app.RequestContext) bool {
			id, ok := data.(*Identity)
			return ok && id.Role.Valid()
		},

		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			response.Error(ctx, c, errors.Unauthorized)
		},

		TokenLookup:   "header: Authorization, query: token",
		TokenHeadName: "Bearer",
	}

	return authMiddleware.MiddlewareInit()
}

func AuthMiddleware() app.HandlerFunc {
	if authMiddleware == nil {
		panic("AuthMiddleware not initialized, call Init() first")
	}
	return authMiddleware.MiddlewareFunc()
}

// GetIdentity 从请求上下文中取出身份
func GetIdentity(c *app.RequestContext) (*Identity, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok
}

func GetUserID(ctx context.Context, c *app.RequestContext) (int64, bool) {
	id, ok := GetIdentity(c)
	if !ok {
		return 0, false
	}
	return id.UserID, true
}

// RequireRole 只放行指定角色
func RequireRole(role model.Role) app.HandlerFunc {
	denied := errors.PatientOnly
	if role == model.RoleCaregiver {
		denied = errors.CaregiverOnly
	}

	return func(ctx context.Context, c *app.RequestContext) {
		id, ok := GetIdentity(c)
		if !ok {
			response.Error(ctx, c, errors.Unauthorized)
			c.Abort()
			return
		}
		if id.Role != role {
			response.Error(ctx, c, denied)
			c.Abort()
			return
		}
		c.Next(ctx)
	}
}
