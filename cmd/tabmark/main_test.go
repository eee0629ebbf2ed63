package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestCommandsAreRegistered(t *testing.T) {
	for _, name := range []string{"serve", "import", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered: %v", name, err)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "tabmark ") {
		t.Errorf("unexpected version output %q", out.String())
	}
}

func TestImportRequiresFile(t *testing.T) {
	rootCmd.SetArgs([]string{"import"})
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetErr(nil) })

	if err := rootCmd.Execute(); err == nil {
		t.Error("import without a file should fail")
	}
}
