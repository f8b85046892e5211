package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testSchema = `
id = "landfill_v3"

[metadata]
sector = "landfill"

[[fields]]
name = "facility_name"
value_cell = "$B$4"
type = "string"

[[fields]]
name = "id_incidence"
value_cell = "$B$2"
type = "integer"
`

const testAliases = `
[aliases]
landfill_v2 = "landfill_v3"
`

// runPortal executes the CLI against temp dirs and captures stdout.
func runPortal(t *testing.T, args ...string) (string, error) {
	t.Helper()

	schemaDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(schemaDir, "landfill_v3.toml"), []byte(testSchema), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(schemaDir, "aliases.toml"), []byte(testAliases), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("PORTAL_SCHEMA_DIR", schemaDir)
	t.Setenv("PORTAL_STAGING_DIR", t.TempDir())
	t.Setenv("PORTAL_UPLOADS_DIR", t.TempDir())

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSchemasCommand(t *testing.T) {
	out, err := runPortal(t, "schemas")
	if err != nil {
		t.Fatalf("schemas: %v", err)
	}
	if !strings.Contains(out, "landfill_v3") {
		t.Errorf("output should list the loaded version:\n%s", out)
	}
	if !strings.Contains(out, "landfill_v2") {
		t.Errorf("output should list the alias:\n%s", out)
	}
}

func TestArtifactsList_Empty(t *testing.T) {
	out, err := runPortal(t, "artifacts", "list")
	if err != nil {
		t.Fatalf("artifacts list: %v", err)
	}
	if !strings.Contains(out, "no staged artifacts") {
		t.Errorf("expected empty-state message, got:\n%s", out)
	}
}

func TestApply_RequiresSelection(t *testing.T) {
	_, err := runPortal(t, "apply", "1002001")
	if err == nil {
		t.Fatal("apply without --all or --fields should fail")
	}
	if !strings.Contains(err.Error(), "--all") {
		t.Errorf("error should mention the flags: %v", err)
	}
}

func TestApply_RejectsBothSelections(t *testing.T) {
	_, err := runPortal(t, "apply", "1002001", "--all", "--fields", "sector")
	if err == nil {
		t.Fatal("apply with both --all and --fields should fail")
	}
}

func TestDiff_RejectsNonNumericID(t *testing.T) {
	_, err := runPortal(t, "diff", "not-a-number")
	if err == nil {
		t.Fatal("diff with non-numeric id should fail")
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Field", "Value"},
		[][]string{{"sector", "landfill"}, {"short"}},
	)
	if !strings.Contains(out, "sector") || !strings.Contains(out, "landfill") {
		t.Errorf("table should contain row values:\n%s", out)
	}
	if renderTable(nil, nil) != "" {
		t.Error("empty headers should render nothing")
	}
}
