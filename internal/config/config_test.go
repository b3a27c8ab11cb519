package config

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "Model", "ARK_TEMPERATURE", "ARK_TOP_P", "ARK_MAX_TOKENS",
		"AI_MAX_ATTEMPTS", "AI_RETRY_DELAY_MS", "AI_HISTORY_LIMIT", "TOTAL_DEBT", "PAYMENT_URL_BASE", "ADAPTER_TIMEOUT_MS",
		"NEGOTIATION_RECLASSIFY", "OPENING_GREETING", "HISTORY_DRIVER", "HISTORY_FILE_PATH", "HISTORY_DB_PATH",
		"FRONTEND_ORIGIN", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.AI.Enabled() {
		t.Error("AI must be disabled without credentials")
	}
	if cfg.AI.MaxAttempts != 3 || cfg.AI.RetryDelay != 500*time.Millisecond || cfg.AI.HistoryLimit != 5 {
		t.Errorf("unexpected retry settings: %+v", cfg.AI)
	}
	if cfg.Negotiation.TotalDebt != 2400 || cfg.Negotiation.PaymentBaseURL != "https://collectwise.com" {
		t.Errorf("unexpected negotiation settings: %+v", cfg.Negotiation)
	}
	if cfg.Negotiation.AdapterTimeout != 20*time.Second || cfg.Negotiation.Reclassify {
		t.Errorf("unexpected adapter settings: %+v", cfg.Negotiation)
	}
	if !strings.Contains(cfg.Negotiation.Greeting, "$2400") {
		t.Errorf("greeting = %q", cfg.Negotiation.Greeting)
	}
	if cfg.History.Driver != HistoryDriverFile || cfg.History.FilePath != "data/history.json" {
		t.Errorf("unexpected history settings: %+v", cfg.History)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "*" {
		t.Errorf("origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("ARK_API_KEY", "key")
	t.Setenv("Model", "doubao")
	t.Setenv("ARK_TEMPERATURE", "0.3")
	t.Setenv("TOTAL_DEBT", "1800")
	t.Setenv("ADAPTER_TIMEOUT_MS", "0")
	t.Setenv("NEGOTIATION_RECLASSIFY", "true")
	t.Setenv("HISTORY_DRIVER", "SQLite")
	t.Setenv("FRONTEND_ORIGIN", "http://localhost:3000/, https://app.example.com")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if !cfg.AI.Enabled() || cfg.AI.Temperature == nil || *cfg.AI.Temperature != 0.3 {
		t.Errorf("unexpected ai config: %+v", cfg.AI)
	}
	if cfg.Negotiation.TotalDebt != 1800 || !strings.Contains(cfg.Negotiation.Greeting, "$1800") {
		t.Errorf("unexpected negotiation config: %+v", cfg.Negotiation)
	}
	if cfg.Negotiation.AdapterTimeout != 0 || !cfg.Negotiation.Reclassify {
		t.Errorf("unexpected adapter config: %+v", cfg.Negotiation)
	}
	if cfg.History.Driver != HistoryDriverSQLite {
		t.Errorf("driver = %q", cfg.History.Driver)
	}
	want := []string{"http://localhost:3000", "https://app.example.com"}
	if strings.Join(cfg.CORS.AllowedOrigins, ",") != strings.Join(want, ",") {
		t.Errorf("origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Log.Format != "console" {
		t.Errorf("format = %q", cfg.Log.Format)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":                   "80 80",
		"ARK_TOP_P":              "high",
		"AI_MAX_ATTEMPTS":        "0",
		"TOTAL_DEBT":             "lots",
		"NEGOTIATION_RECLASSIFY": "sometimes",
		"HISTORY_DRIVER":         "redis",
		"LOG_LEVEL":              "trace",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
			if !strings.Contains(err.Error(), key) && key != "PORT" {
				t.Fatalf("error %q does not name %s", err, key)
			}
		})
	}
}

func TestLogConfigNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("component", "engine").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %s", out)
	}
	if !strings.Contains(out, `"component":"engine"`) || !strings.Contains(out, `"level":"warn"`) {
		t.Fatalf("unexpected json log line: %s", out)
	}

	buf.Reset()
	console := LogConfig{Level: "debug", Format: "console"}.NewLogger(&buf)
	console.Debug().Msg("console line")
	if !strings.Contains(buf.String(), "console line") || strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("unexpected console output: %s", buf.String())
	}
}
