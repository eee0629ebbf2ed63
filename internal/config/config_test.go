package config

import (
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		wantPanic bool
	}{
		{
			name:  "variable set",
			key:   "TABMARK_TEST_VAR",
			value: "test_value",
		},
		{
			name:      "variable not set",
			key:       "TABMARK_TEST_VAR_MISSING",
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "single value", input: "localhost", expected: []string{"localhost"}},
		{name: "spaces and quotes", input: ` "a.lan" , 'b.lan',,c.lan `, expected: []string{"a.lan", "b.lan", "c.lan"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndTrim(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("splitAndTrim() length = %v, want %v", len(result), len(tt.expected))
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("splitAndTrim()[%d] = %v, want %v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{name: "valid duration", key: "TABMARK_TEST_DURATION", value: "5s", def: time.Second, expected: 5 * time.Second},
		{name: "invalid duration uses default", key: "TABMARK_TEST_DURATION_BAD", value: "soon", def: 10 * time.Second, expected: 10 * time.Second},
		{name: "missing variable uses default", key: "TABMARK_TEST_DURATION_MISSING", def: 15 * time.Second, expected: 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}
			if got := mustDuration(tt.key, tt.def); got != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{name: "true value", key: "TABMARK_TEST_BOOL", value: "true", expected: true},
		{name: "false value", key: "TABMARK_TEST_BOOL_FALSE", value: "false", def: true, expected: false},
		{name: "invalid value uses default", key: "TABMARK_TEST_BOOL_BAD", value: "maybe", def: true, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if got := mustBool(tt.key, tt.def); got != tt.expected {
				t.Errorf("mustBool() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TABMARK_SESSION_SECRET", "s3cret")
	t.Setenv("TABMARK_REDIS_ADDR", "localhost:6379")
	t.Setenv("TABMARK_RESYNC_INTERVAL", "1m")
	t.Setenv("TABMARK_ALLOWED_HOSTS", "marks.lan, localhost:8080")

	cfg := Load()

	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	if cfg.ResyncInterval != time.Minute {
		t.Errorf("ResyncInterval = %v, want 1m", cfg.ResyncInterval)
	}
	if len(cfg.AllowedHosts) != 2 {
		t.Errorf("AllowedHosts = %v", cfg.AllowedHosts)
	}
	if red := cfg.Redacted(); red.SessionSecret == "s3cret" {
		t.Error("Redacted() leaked the session secret")
	}
}

func TestLoadPanicsWithoutSecret(t *testing.T) {
	t.Setenv("TABMARK_SESSION_SECRET", "")
	t.Setenv("TABMARK_REDIS_ADDR", "localhost:6379")

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked without TABMARK_SESSION_SECRET")
		}
	}()
	Load()
}
