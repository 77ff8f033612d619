package generator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// Template variants.
const (
	TemplateGo  = "go"
	TemplateSQL = "sql"
)

// DetectTemplate picks the seed template from the project manifest: a go.mod
// with a module path means seeds are Go files compiled into the project's
// binary, anything else gets plain SQL seeds.
func DetectTemplate(root string) (variant, modulePath string, err error) {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TemplateSQL, "", nil
		}
		return "", "", fmt.Errorf("generator: read go.mod: %w", err)
	}

	modulePath = modfile.ModulePath(data)
	if modulePath == "" {
		return TemplateSQL, "", nil
	}
	return TemplateGo, modulePath, nil
}
