package internal

import (
	"strings"
	"testing"
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
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestOCRConfig(t *testing.T) {
	cfg := OCRConfig{Languages: []string{"kor", "eng"}, DPI: 300}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid OCR config should pass: %v", err)
	}

	cfg = OCRConfig{Languages: nil, DPI: 300}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty languages should fail")
	}

	cfg = OCRConfig{Languages: []string{"kor"}, DPI: 10}
	if err := cfg.Validate(); err == nil {
		t.Fatal("out-of-range dpi should fail")
	}
}

func TestGeminiConfig_DisabledSkipsValidation(t *testing.T) {
	cfg := GeminiConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled gemini should pass: %v", err)
	}
}

func TestGeminiConfig_EnabledRequiresProject(t *testing.T) {
	cfg := GeminiConfig{Enabled: true, Region: "us-central1", Model: "gemini-2.0-flash"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled gemini without project should fail")
	}
	cfg.ProjectID = "my-project"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("complete gemini config should pass: %v", err)
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfigValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}
