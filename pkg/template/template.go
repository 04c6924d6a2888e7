package template

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flanksource/gomplate/v3"
)

// RenderTemplate renders a template string using flanksource/gomplate
func RenderTemplate(templateStr string, data map[string]interface{}) (string, error) {
	result, err := gomplate.RunTemplate(data, gomplate.Template{
		Template: templateStr,
	})
	if err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	return result, nil
}

// TemplateString renders a template whose variables are all strings
func TemplateString(pattern string, data map[string]string) (string, error) {
	interfaceData := make(map[string]interface{}, len(data))
	for k, v := range data {
		interfaceData[k] = v
	}
	return RenderTemplate(pattern, interfaceData)
}

// RenderFiles renders each named template into dir, creating parent directories.
// Keys are paths relative to dir.
func RenderFiles(dir string, files map[string]string, data map[string]interface{}, mode os.FileMode) error {
	for name, tmpl := range files {
		content, err := RenderTemplate(tmpl, data)
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", name, err)
		}
		// gomplate trims trailing whitespace
		if strings.HasSuffix(tmpl, "\n") && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}

		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", name, err)
		}
		if err := os.WriteFile(path, []byte(content), mode); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
