//go:build integration

package cmd

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestMain builds the binary before running integration tests
func TestMain(m *testing.M) {
	cmd := exec.Command("go", "build", "-o", "../azpim-test", "../.")
	if err := cmd.Run(); err != nil {
		panic("Failed to build binary for integration tests: " + err.Error())
	}

	code := m.Run()

	os.Remove("../azpim-test")

	os.Exit(code)
}

func getBinaryPath() string {
	return filepath.Join("..", "azpim-test")
}

// isolatedEnv points config and auth record lookups at a throwaway home so
// the tests never touch the operator's real state.
func isolatedEnv(t *testing.T) []string {
	t.Helper()
	tempDir := t.TempDir()
	env := append(os.Environ(), "AZPIM_CONFIG="+filepath.Join(tempDir, "config.yaml"))
	env = append(env, "HOME="+tempDir)
	return env
}

func TestIntegration_Help(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantText []string
	}{
		{
			name:     "root help",
			args:     []string{"--help"},
			wantText: []string{"azpim", "Available Commands:", "configure", "login", "status", "deactivate"},
		},
		{
			name:     "short help flag",
			args:     []string{"-h"},
			wantText: []string{"azpim", "Available Commands:"},
		},
		{
			name:     "help command",
			args:     []string{"help"},
			wantText: []string{"azpim", "Available Commands:"},
		},
		{
			name:     "root activation flags",
			args:     []string{"--help"},
			wantText: []string{"--reason", "--hours", "--tenant", "--subscription"},
		},
		{
			name:     "configure help",
			args:     []string{"configure", "--help"},
			wantText: []string{"configure", "tenant", "subscription"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(getBinaryPath(), tt.args...)
			output, err := cmd.CombinedOutput()
			if err != nil && !strings.Contains(string(output), "Usage:") {
				t.Fatalf("Command failed: %v\nOutput: %s", err, output)
			}

			outputStr := string(output)
			for _, want := range tt.wantText {
				if !strings.Contains(outputStr, want) {
					t.Errorf("Expected output to contain %q, got:\n%s", want, outputStr)
				}
			}
		})
	}
}

func TestIntegration_Version(t *testing.T) {
	cmd := exec.Command(getBinaryPath(), "version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Version command failed: %v\nOutput: %s", err, output)
	}

	outputStr := string(output)
	requiredFields := []string{"azpim version", "commit:", "built:"}

	for _, field := range requiredFields {
		if !strings.Contains(outputStr, field) {
			t.Errorf("Expected output to contain %q, got:\n%s", field, outputStr)
		}
	}

	if !strings.Contains(outputStr, "dev") && !strings.Contains(outputStr, "unknown") {
		t.Errorf("Expected version output to show dev build info, got:\n%s", outputStr)
	}
}

func TestIntegration_ActivateWithoutJustification(t *testing.T) {
	// Without a terminal attached the command cannot prompt, so it must
	// refuse before contacting any backend.
	cmd := exec.Command(getBinaryPath())
	cmd.Env = isolatedEnv(t)

	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Errorf("Expected activation to fail without a justification, but it succeeded.\nOutput: %s", output)
	}

	if !strings.Contains(string(output), "justification is required") {
		t.Errorf("Expected the justification error, got:\n%s", output)
	}
}

func TestIntegration_StatusWithoutLogin(t *testing.T) {
	cmd := exec.Command(getBinaryPath(), "status")
	cmd.Env = isolatedEnv(t)

	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Status command failed: %v\nOutput: %s", err, output)
	}

	if !strings.Contains(string(output), "Not signed in") {
		t.Errorf("Expected status to report not signed in, got:\n%s", output)
	}
}

func TestIntegration_DeactivateWithoutConfig(t *testing.T) {
	cmd := exec.Command(getBinaryPath(), "deactivate")
	cmd.Env = isolatedEnv(t)

	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Errorf("Expected deactivation to fail without credentials, but it succeeded.\nOutput: %s", output)
	}

	outputStr := string(output)
	errorKeywords := []string{"error", "Error", "failed", "Failed", "invalid", "tenant"}
	foundError := false
	for _, keyword := range errorKeywords {
		if strings.Contains(outputStr, keyword) {
			foundError = true
			break
		}
	}

	if !foundError {
		t.Errorf("Expected error output without credentials, got:\n%s", outputStr)
	}
}

func TestIntegration_ConfigureRoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	env := append(os.Environ(), "AZPIM_CONFIG="+configPath)

	cmd := exec.Command(getBinaryPath(), "configure",
		"--tenant", "72f988bf-86f1-41af-91ab-2d7cd011db47",
		"--subscription", "3f2504e0-4f89-41d3-9a0c-0305e82c3301")
	cmd.Env = env
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("configure failed: %v\nOutput: %s", err, output)
	}

	if !strings.Contains(string(output), "Config saved") {
		t.Errorf("expected output to contain 'Config saved', got:\n%s", output)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("config file was not written: %v", err)
	}
	for _, want := range []string{"72f988bf-86f1-41af-91ab-2d7cd011db47", "3f2504e0-4f89-41d3-9a0c-0305e82c3301"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("config file missing %q, got:\n%s", want, data)
		}
	}
}

func TestIntegration_UnknownFlag(t *testing.T) {
	// A bare unknown word is taken as the justification argument, so only a
	// flag typo can prove argument validation works.
	cmd := exec.Command(getBinaryPath(), "--nonexistent")
	output, err := cmd.CombinedOutput()

	if err == nil {
		t.Errorf("Expected unknown flag to fail, but it succeeded.\nOutput: %s", output)
	}

	if !strings.Contains(string(output), "unknown flag") {
		t.Errorf("Expected an unknown flag error, got:\n%s", output)
	}
}

func TestIntegration_TooManyArgs(t *testing.T) {
	cmd := exec.Command(getBinaryPath(), "one", "two")
	output, err := cmd.CombinedOutput()

	if err == nil {
		t.Errorf("Expected extra arguments to fail, but they succeeded.\nOutput: %s", output)
	}

	if !strings.Contains(string(output), "accepts at most 1") {
		t.Errorf("Expected an argument count error, got:\n%s", output)
	}
}
