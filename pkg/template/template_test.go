package template

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]interface{}
		expected string
	}{
		{
			name:     "simple_variable_substitution",
			template: "{{.version}}",
			data: map[string]interface{}{
				"version": "1.0.3",
			},
			expected: "1.0.3",
		},
		{
			name:     "artifact_name",
			template: "{{.package}}_{{.version}}_{{.arch}}_{{.tag}}.deb",
			data: map[string]interface{}{
				"package": "cryptnox-cli",
				"version": "1.0.3",
				"arch":    "amd64",
				"tag":     "ubuntu-22.04",
			},
			expected: "cryptnox-cli_1.0.3_amd64_ubuntu-22.04.deb",
		},
		{
			name:     "release_url",
			template: "https://github.com/{{.repo}}/releases/download/v{{.version}}/{{.filename}}",
			data: map[string]interface{}{
				"repo":     "Cryptnox/cryptnox-cli",
				"version":  "1.0.3",
				"filename": "SHA256SUMS",
			},
			expected: "https://github.com/Cryptnox/cryptnox-cli/releases/download/v1.0.3/SHA256SUMS",
		},
		{
			name:     "no_variables",
			template: "static",
			data:     map[string]interface{}{},
			expected: "static",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RenderTemplate(tt.template, tt.data)
			if err != nil {
				t.Fatalf("RenderTemplate() error = %v", err)
			}
			if result != tt.expected {
				t.Errorf("RenderTemplate() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestTemplateString(t *testing.T) {
	result, err := TemplateString("{{.package}}", map[string]string{"package": "cryptnox-cli"})
	if err != nil {
		t.Fatalf("TemplateString() error = %v", err)
	}
	if result != "cryptnox-cli" {
		t.Errorf("TemplateString() = %q", result)
	}
}

func TestRenderFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"debian/compat":        "10\n",
		"debian/source/format": "3.0 ({{.format}})\n",
		"debian/docs":          "README.md",
	}

	if err := RenderFiles(dir, files, map[string]interface{}{"format": "native"}, 0644); err != nil {
		t.Fatalf("RenderFiles() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "debian", "source", "format"))
	if err != nil {
		t.Fatalf("failed to read rendered file: %v", err)
	}
	if string(data) != "3.0 (native)\n" {
		t.Errorf("rendered content = %q", string(data))
	}

	for name, expected := range map[string]string{"debian/compat": "10\n", "debian/docs": "README.md"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("failed to read %s: %v", name, err)
		}
		if string(data) != expected {
			t.Errorf("%s content = %q, want %q", name, string(data), expected)
		}
	}
}
