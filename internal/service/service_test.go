package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderPlist(t *testing.T) {
	l := layout{home: "/Users/test"}
	got, err := renderPlist(l, "/Users/test/.nudge")
	if err != nil {
		t.Fatalf("renderPlist: %v", err)
	}
	for _, want := range []string{
		"<string>com.nudge.bot</string>",
		"<string>/usr/local/bin/nudge</string>\n\t\t<string>run</string>",
		"<string>/Users/test/.nudge</string>",
		"<string>/Users/test/Library/Logs/nudge-stdout.log</string>",
		"<string>/Users/test/Library/Logs/nudge-stderr.log</string>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("plist missing %q:\n%s", want, got)
		}
	}
	if p := l.plistPath(); p != "/Users/test/Library/LaunchAgents/com.nudge.bot.plist" {
		t.Errorf("plistPath = %q", p)
	}
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestWorkDir(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config")

	tests := []struct {
		name, contents, want string
	}{
		{"relative sqlite path", "DATABASE_PATH=./data.db\n", wd},
		{"absolute sqlite path", "DATABASE_PATH=/var/lib/nudge.db\n", dir},
		{"postgres", "DATABASE_PATH=./data.db\nDATABASE_URL=postgres://localhost/nudge\n", dir},
		{"no database settings", "DISCORD_BOT_TOKEN=x\n", dir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeFile(t, cfg, tt.contents)
			if got := workDir(cfg); got != tt.want {
				t.Errorf("workDir = %q, want %q", got, tt.want)
			}
		})
	}

	if got := workDir(filepath.Join(dir, "missing")); got != dir {
		t.Errorf("missing config: workDir = %q, want %q", got, dir)
	}
}

func TestSeedConfig(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	cfg := filepath.Join(dir, "home", ".nudge", "config")

	if err := seedConfig(env, cfg); err != nil {
		t.Fatalf("seedConfig without .env: %v", err)
	}
	if _, err := os.Stat(cfg); !os.IsNotExist(err) {
		t.Fatal("nothing should be written without a .env")
	}

	writeFile(t, env, "DISCORD_BOT_TOKEN=first\n")
	if err := seedConfig(env, cfg); err != nil {
		t.Fatalf("seedConfig: %v", err)
	}
	info, err := os.Stat(cfg)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config mode = %v, want 0600", info.Mode().Perm())
	}

	writeFile(t, env, "DISCORD_BOT_TOKEN=second\n")
	if err := seedConfig(env, cfg); err != nil {
		t.Fatalf("seedConfig (again): %v", err)
	}
	data, _ := os.ReadFile(cfg)
	if string(data) != "DISCORD_BOT_TOKEN=first\n" {
		t.Errorf("existing config was overwritten: %q", data)
	}
}
