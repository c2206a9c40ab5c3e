package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCLI executes the root command against a config pointing at dir.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cfgFile := filepath.Join(dir, "config.yml")
	cfg := "db:\n  path: " + filepath.Join(dir, "test.db") + "\n"
	if err := os.WriteFile(cfgFile, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	flagSSID, flagPass, flagReveal = "", "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", cfgFile}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCredentialsCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "credentials", "show")
	if err != nil || !strings.Contains(out, "no saved credentials") {
		t.Fatalf("show on empty store: out=%q err=%v", out, err)
	}

	if _, err := runCLI(t, dir, "credentials", "set", "--pass", "x"); err == nil {
		t.Fatal("set without --ssid succeeded")
	}

	if out, err := runCLI(t, dir, "credentials", "set", "--ssid", "Home Net", "--pass", "s3cret"); err != nil {
		t.Fatalf("set: out=%q err=%v", out, err)
	}

	out, err = runCLI(t, dir, "credentials", "show")
	if err != nil || !strings.Contains(out, "ssid: Home Net") || !strings.Contains(out, "pass: (set)") {
		t.Fatalf("show: out=%q err=%v", out, err)
	}
	if strings.Contains(out, "s3cret") {
		t.Fatal("password printed without --reveal")
	}

	out, err = runCLI(t, dir, "credentials", "show", "--reveal")
	if err != nil || !strings.Contains(out, "pass: s3cret") {
		t.Fatalf("show --reveal: out=%q err=%v", out, err)
	}
}
