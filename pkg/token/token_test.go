package token

import (
	stderrors "errors"
	"testing"

	"CareCompanion/config"
	"CareCompanion/pkg/errors"
)

func setup(t *testing.T) {
	t.Helper()
	old := config.Cfg
	t.Cleanup(func() { config.Cfg = old })

	config.Cfg.JWTSecret = "test-secret-test-secret-test-sec"
	config.Cfg.JWTExpireMinutes = 30
	config.Cfg.JWTRefreshDays = 7
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	setup(t)

	pair, err := GenerateTokenPair(42, "caregiver")
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}
	if pair.ExpiresIn != 30*60 {
		t.Errorf("ExpiresIn = %d, want %d", pair.ExpiresIn, 30*60)
	}

	uid, role, err := ValidateRefreshToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("ValidateRefreshToken: %v", err)
	}
	if uid != 42 || role != "caregiver" {
		t.Errorf("got (%d, %q), want (42, caregiver)", uid, role)
	}
}

func TestAccessTokenIsNotRefreshToken(t *testing.T) {
	setup(t)

	pair, err := GenerateTokenPair(7, "patient")
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	_, _, err = ValidateRefreshToken(pair.AccessToken)
	if !stderrors.Is(err, errors.ErrInvalidTokenType) {
		t.Fatalf("got %v, want ErrInvalidTokenType", err)
	}
}

func TestValidateRefreshTokenRejectsOtherSecret(t *testing.T) {
	setup(t)

	pair, err := GenerateTokenPair(7, "patient")
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	config.Cfg.JWTSecret = "another-secret-another-secret-xx"
	if _, _, err := ValidateRefreshToken(pair.RefreshToken); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}
}

func TestParseUserID(t *testing.T) {
	tests := []struct {
		in      interface{}
		want    int64
		wantErr bool
	}{
		{"123", 123, false},
		{float64(456), 456, false},
		{"abc", 0, true},
		{nil, 0, true},
	}

	for _, tt := range tests {
		got, err := ParseUserID(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseUserID(%v) = (%d, %v), want (%d, err=%v)", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}
