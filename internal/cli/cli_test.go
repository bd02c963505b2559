package cli

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"quiz-service/internal/config"
)

func TestHashPasswordCommand(t *testing.T) {
	cmd := NewHashPasswordCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"s3cret"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	hash := strings.TrimSpace(out.String())
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
		t.Fatalf("printed hash does not match password: %v", err)
	}
}

func TestNewAuthServiceDefaults(t *testing.T) {
	cfg := config.Config{}
	cfg.Auth.Username = "admin"
	svc, err := newAuthService(cfg)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	if err := svc.Authenticate("admin", defaultAdminPassword); err != nil {
		t.Fatalf("expected default admin credentials to work, got %v", err)
	}
}
