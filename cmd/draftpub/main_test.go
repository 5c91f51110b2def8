package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eringen/draftpub/payload"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"WEIXIN_APP_ID", "WEIXIN_APP_SECRET", "WECHAT_APP_ID", "WECHAT_APP_SECRET", "DRAFTPUB_ADDR", "DRAFTPUB_WECHAT_APP_ID"} {
		if old, ok := os.LookupEnv(name); ok {
			os.Unsetenv(name)
			t.Cleanup(func() { os.Setenv(name, old) })
		} else {
			t.Cleanup(func() { os.Unsetenv(name) })
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, logCfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Addr != ":8001" || cfg.DownloadTimeout != 30*time.Second || cfg.ThumbMaxWidth != 900 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.WeChat.BaseURL != "https://api.weixin.qq.com/cgi-bin" {
		t.Errorf("BaseURL = %q", cfg.WeChat.BaseURL)
	}
	if logCfg.Level != "info" {
		t.Errorf("log level = %q", logCfg.Level)
	}
}

func TestLoadConfigDotenvAndEnvironment(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "WEIXIN_APP_ID=from-file\nWEIXIN_APP_SECRET=secret-file\nDRAFTPUB_ADDR=:9000\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WEIXIN_APP_ID", "from-env")

	cfg, _, err := loadConfig(envFile)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.WeChat.AppID != "from-env" {
		t.Errorf("AppID = %q, environment should win over the file", cfg.WeChat.AppID)
	}
	if cfg.WeChat.AppSecret != "secret-file" {
		t.Errorf("AppSecret = %q", cfg.WeChat.AppSecret)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
}

func TestPayloadFromFile(t *testing.T) {
	md := "intro\n\n# Real Title\n\n## part\n"
	rec, _ := payload.Resolve(payloadFromFile("notes/post.md", []byte(md)))
	if rec.Title != "Real Title" || rec.Content != md {
		t.Errorf("record = %+v", rec)
	}

	rec, _ = payload.Resolve(payloadFromFile("notes/untitled.markdown", []byte("## only h2")))
	if rec.Title != "untitled" {
		t.Errorf("Title = %q, want file name", rec.Title)
	}

	rec, _ = payload.Resolve(payloadFromFile("body.json", []byte(`[{"title":"J","content":"c"}]`)))
	if rec.Title != "J" || rec.Content != "c" {
		t.Errorf("record = %+v", rec)
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "draftpub ") {
		t.Errorf("output = %q", out.String())
	}
}
