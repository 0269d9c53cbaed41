package internal

import (
	"strings"
	"testing"
	"time"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Presenter.ResetOnSwitch {
		t.Error("reset_on_switch should default to false")
	}
}

func TestDocumentsConfig_EmptyDriverDefaultsFS(t *testing.T) {
	cfg := DocumentsConfig{Path: "./docs"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty driver should default to fs: %v", err)
	}
	if cfg.Driver != DocumentsDriverFS {
		t.Errorf("driver = %q, want %q", cfg.Driver, DocumentsDriverFS)
	}
}

func TestDocumentsConfig_FSNeedsPath(t *testing.T) {
	cfg := DocumentsConfig{Driver: "fs"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("fs driver without path should fail")
	}
}

func TestDocumentsConfig_S3NeedsBucket(t *testing.T) {
	cfg := DocumentsConfig{Driver: "s3"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("s3 driver without bucket should fail")
	}
	cfg.S3.Bucket = "deal-docs"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("s3 driver with bucket should pass: %v", err)
	}
}

func TestDocumentsConfig_UnknownDriver(t *testing.T) {
	cfg := DocumentsConfig{Driver: "ftp", Path: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown driver should fail")
	}
}

func TestEventsConfig_NegativeThrottle(t *testing.T) {
	cfg := EventsConfig{CountsThrottle: -time.Second}
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative throttle should fail")
	}
}

func TestIndexConfig_Required(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Index.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty index path should fail")
	}
}

func TestPresenterConfig_Negative(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Presenter.SessionIdleTimeout = -time.Minute
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative idle timeout")
	}
	cfg = NewDefaultConfig()
	cfg.Presenter.MaxSessions = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative session cap")
	}
}
