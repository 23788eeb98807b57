package middleware

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"

	"CareCompanion/internal/model"
)

func newEngine(handlers ...app.HandlerFunc) *route.Engine {
	r := route.NewEngine(config.NewOptions(nil))
	r.Use(handlers...)
	r.GET("/ping", func(ctx context.Context, c *app.RequestContext) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func withIdentity(id *Identity) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if id != nil {
			c.Set(IdentityKey, id)
		}
		c.Next(ctx)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		identity *Identity
		role     model.Role
		want     int
		wantCode string
	}{
		{"caregiver allowed", &Identity{UserID: 1, Role: model.RoleCaregiver}, model.RoleCaregiver, http.StatusOK, ""},
		{"patient on caregiver route", &Identity{UserID: 2, Role: model.RolePatient}, model.RoleCaregiver, http.StatusForbidden, "CAREGIVER_ONLY"},
		{"caregiver on patient route", &Identity{UserID: 1, Role: model.RoleCaregiver}, model.RolePatient, http.StatusForbidden, "PATIENT_ONLY"},
		{"anonymous", nil, model.RolePatient, http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(withIdentity(tt.identity), RequireRole(tt.role))
			resp := ut.PerformRequest(r, http.MethodGet, "/ping", nil).Result()

			if resp.StatusCode() != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode(), tt.want)
			}
			if tt.wantCode != "" && !strings.Contains(string(resp.Body()), tt.wantCode) {
				t.Errorf("body %s does not contain %s", resp.Body(), tt.wantCode)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	r := newEngine(RequestIDMiddleware())

	resp := ut.PerformRequest(r, http.MethodGet, "/ping", nil, ut.Header{Key: RequestIDHeader, Value: "req-1"}).Result()
	if got := resp.Header.Get(RequestIDHeader); got != "req-1" {
		t.Errorf("propagated id = %q, want req-1", got)
	}

	resp = ut.PerformRequest(r, http.MethodGet, "/ping", nil).Result()
	if got := resp.Header.Get(RequestIDHeader); len(got) != 36 {
		t.Errorf("generated id = %q, want uuid", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newEngine(CORSMiddleware())
	r.OPTIONS("/ping", func(ctx context.Context, c *app.RequestContext) {
		c.String(http.StatusOK, "should not reach")
	})

	resp := ut.PerformRequest(r, http.MethodOptions, "/ping", nil, ut.Header{Key: "Origin", Value: "https://family.example"}).Result()
	if resp.StatusCode() != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode())
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://family.example" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestMetricsMiddlewareWithoutInit(t *testing.T) {
	r := newEngine(MetricsMiddleware())
	resp := ut.PerformRequest(r, http.MethodGet, "/ping", nil).Result()
	if resp.StatusCode() != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode())
	}
}

func TestTrimStack(t *testing.T) {
	stack := []byte("goroutine 1 [running]:\nruntime/debug.Stack()\n\t/usr/go/src/runtime/debug/stack.go:24\nmain.handler()\n\t/app/main.go:10")
	got := string(trimStack(stack))
	if strings.Contains(got, "runtime/debug.Stack") {
		t.Errorf("runtime frame not removed: %s", got)
	}
	if !strings.Contains(got, "main.handler()") {
		t.Errorf("application frame removed: %s", got)
	}
}
