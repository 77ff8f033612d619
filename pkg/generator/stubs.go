package generator

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

//go:embed stubs/*.stub
var defaultStubs embed.FS

// StubData holds variables passed to the .stub templates.
type StubData struct {
	Name       string // full seed name, e.g. 20260101120000_users
	Package    string // Go package of the seed directory
	Table      string // example table the scaffold writes to
	ApplyFunc  string
	RevertFunc string
	Marker     string // discriminator value shared by Apply and Revert
}

// renderStub locates the stub (project override first, embedded fallback)
// and returns the text/template output.
func renderStub(root, stubName string, data StubData) (string, error) {
	var stubContent []byte
	var err error

	userPath := filepath.Join(root, ".seedkit", "stubs", stubName+".stub")
	if _, errStat := os.Stat(userPath); errStat == nil {
		stubContent, err = os.ReadFile(userPath)
		if err != nil {
			return "", fmt.Errorf("failed to read user stub %s: %w", userPath, err)
		}
	} else {
		stubContent, err = defaultStubs.ReadFile("stubs/" + stubName + ".stub")
		if err != nil {
			return "", fmt.Errorf("embedded stub not found: %s", stubName)
		}
	}

	t, err := template.New(stubName).Option("missingkey=error").Parse(string(stubContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", stubName, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", stubName, err)
	}

	return buf.String(), nil
}
