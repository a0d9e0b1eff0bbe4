// internal/cli/show_config_test.go
package pichat

import (
	"bytes"
	"strings"
	"testing"
)

func TestShowConfigCmd(t *testing.T) {
	cfg := testConfig(t)
	cfg.Modes = []string{"html", "phpbb"}
	currentConfig = cfg
	t.Cleanup(func() { currentConfig = nil })

	var out bytes.Buffer
	showConfigCmd.SetOut(&out)
	t.Cleanup(func() { showConfigCmd.SetOut(nil) })

	showConfigCmd.Run(showConfigCmd, []string{})

	for _, want := range []string{"Current configuration:", "Modes:              html, bbcode", "Sources Catalog:    " + cfg.CatalogPath()} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in output:\n%s", want, out.String())
		}
	}
}
