package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

// fixtureKB writes a minimal flashlight knowledge base and returns its
// directory.
func fixtureKB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeFile(t, dir, "spaces/spaces.yaml", `
spaces:
  - id: battery_level
    name: Battery Level
    levels: [empty, low, medium, high]
  - id: bulb_state
    name: Bulb State
    levels: ["off", "on"]
`)

	writeFile(t, dir, "objects/flashlight.yaml", `
type: flashlight
parts:
  battery:
    attributes:
      level:
        space: battery_level
        default: unknown
  bulb:
    attributes:
      state:
        space: bulb_state
        default: "off"
constraints:
  - type: dependency
    name: lit_bulb_needs_charge
    condition:
      type: attribute_check
      target: bulb.state
      operator: equals
      value: "on"
    requires:
      type: attribute_check
      target: battery.level
      operator: not_equals
      value: empty
`)

	writeFile(t, dir, "actions/switch_on.yaml", `
action: switch_on
object_type: flashlight
preconditions:
  - type: attribute_check
    target: battery.level
    operator: not_equals
    value: empty
effects:
  - type: set_attribute
    target: bulb.state
    value: on
`)

	writeFile(t, dir, "actions/discharge.yaml", `
action: discharge
object_type: flashlight
effects:
  - type: conditional
    condition:
      type: attribute_check
      target: battery.level
      operator: gt
      value: low
    then:
      - type: set_trend
        target: battery.level
        direction: down
    else:
      - type: set_attribute
        target: battery.level
        value: empty
`)

	return dir
}

// execCLI runs a fresh application instance with the given arguments
// and returns everything written to stdout and stderr.
func execCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := New().WithOutput(&buf, &buf)
	err := app.ExecuteWithArgs(context.Background(), args)
	return buf.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execCLI(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, "worldsim version") {
		t.Errorf("version output = %q", out)
	}
}

func TestValidate(t *testing.T) {
	dir := fixtureKB(t)

	out, err := execCLI(t, "validate", "--kb", dir)
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(out, "2 space(s), 1 object type(s), 2 action(s)") {
		t.Errorf("validate output = %q", out)
	}
	if !strings.Contains(out, "All validations passed") {
		t.Errorf("validate output = %q", out)
	}
}

func TestValidateBadKB(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "actions/bad.yaml", `
action: orphan
object_type: nowhere
effects:
  - type: set_attribute
    target: a.b
    value: c
`)

	if _, err := execCLI(t, "validate", "--kb", dir); err == nil {
		t.Fatal("validate succeeded on a broken knowledge base")
	}
}

func TestShow(t *testing.T) {
	out, err := execCLI(t, "show", "flashlight", "--kb", fixtureKB(t))
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	for _, want := range []string{
		"flashlight (object type)",
		"battery",
		"level",
		"battery_level {empty, low, medium, high}",
		"lit_bulb_needs_charge",
		"switch_on",
		"discharge",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestCapabilities(t *testing.T) {
	dir := fixtureKB(t)

	out, err := execCLI(t, "capabilities", "flashlight", "--kb", dir)
	if err != nil {
		t.Fatalf("capabilities error = %v", err)
	}
	if !strings.Contains(out, "+ switch_on") {
		t.Errorf("capabilities output = %q", out)
	}

	// An empty battery rules switch_on out.
	out, err = execCLI(t, "capabilities", "flashlight", "--kb", dir, "--set", "battery.level=empty")
	if err != nil {
		t.Fatalf("capabilities error = %v", err)
	}
	if !strings.Contains(out, "- switch_on") {
		t.Errorf("capabilities output = %q", out)
	}
}

func TestApply(t *testing.T) {
	dir := fixtureKB(t)

	out, err := execCLI(t, "apply", "flashlight", "discharge", "--kb", dir, "--set", "battery.level=high")
	if err != nil {
		t.Fatalf("apply error = %v", err)
	}
	if !strings.Contains(out, "1 branch(es)") {
		t.Errorf("apply output = %q", out)
	}

	// Full ignorance of the level branches on the gt low condition.
	out, err = execCLI(t, "apply", "flashlight", "discharge", "--kb", dir)
	if err != nil {
		t.Fatalf("apply error = %v", err)
	}
	if !strings.Contains(out, "2 branch(es)") {
		t.Errorf("apply output = %q", out)
	}
	if !strings.Contains(out, "assuming") {
		t.Errorf("apply output missing branch conditions: %q", out)
	}
}

func TestRunAndRunsLifecycle(t *testing.T) {
	kbDir := fixtureKB(t)
	storeDir := t.TempDir()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, filepath.Dir(cfgPath), filepath.Base(cfgPath), `
knowledge_base:
  dir: `+kbDir+`
storage:
  backend: filesystem
  dir: `+storeDir+`
`)

	out, err := execCLI(t, "run", "flashlight", "discharge", "-c", cfgPath)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	if !strings.Contains(out, "Saved to filesystem store") {
		t.Errorf("run output = %q", out)
	}

	out, err = execCLI(t, "runs", "list", "-c", cfgPath)
	if err != nil {
		t.Fatalf("runs list error = %v", err)
	}
	if !strings.Contains(out, "flashlight") {
		t.Errorf("runs list output = %q", out)
	}
	runID := strings.Fields(out)[0]

	out, err = execCLI(t, "runs", "show", runID, "-c", cfgPath)
	if err != nil {
		t.Fatalf("runs show error = %v", err)
	}
	if !strings.Contains(out, "discharge") {
		t.Errorf("runs show output = %q", out)
	}

	htmlPath := filepath.Join(t.TempDir(), "run.html")
	if _, err := execCLI(t, "runs", "render", runID, htmlPath, "-c", cfgPath); err != nil {
		t.Fatalf("runs render error = %v", err)
	}
	data, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "<!DOCTYPE html>") {
		t.Errorf("rendered file does not look like HTML")
	}

	if _, err := execCLI(t, "runs", "delete", runID, "-c", cfgPath); err != nil {
		t.Fatalf("runs delete error = %v", err)
	}
	out, err = execCLI(t, "runs", "list", "-c", cfgPath)
	if err != nil {
		t.Fatalf("runs list error = %v", err)
	}
	if !strings.Contains(out, "no runs") {
		t.Errorf("runs list after delete = %q", out)
	}
}

func TestRunNoSave(t *testing.T) {
	out, err := execCLI(t, "run", "flashlight", "discharge", "--kb", fixtureKB(t), "--no-save")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	if strings.Contains(out, "Saved to") {
		t.Errorf("run --no-save persisted: %q", out)
	}
}

func TestSchema(t *testing.T) {
	out, err := execCLI(t, "schema")
	if err != nil {
		t.Fatalf("schema error = %v", err)
	}
	if !strings.Contains(out, `"$schema"`) {
		t.Errorf("schema output = %q", out)
	}
}

func TestParseHelpers(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		got, err := parseOverrides([]string{"battery.level=high", "bulb.state=off|on"})
		if err != nil {
			t.Fatalf("parseOverrides() error = %v", err)
		}
		if l, known := got["battery.level"].Single(); !known || l != "high" {
			t.Errorf("battery.level = %v", got["battery.level"])
		}
		if v := got["bulb.state"]; v.IsKnown() || !v.Contains("on") || !v.Contains("off") {
			t.Errorf("bulb.state = %v", v)
		}

		if _, err := parseOverrides([]string{"nope"}); err == nil {
			t.Error("parseOverrides() accepted a pair without =")
		}
	})

	t.Run("steps", func(t *testing.T) {
		step, err := parseStep("set_level:level=high")
		if err != nil {
			t.Fatalf("parseStep() error = %v", err)
		}
		if step.Action != "set_level" || step.Params["level"] != "high" {
			t.Errorf("parseStep() = %+v", step)
		}

		if _, err := parseStep(":level=high"); err == nil {
			t.Error("parseStep() accepted an empty action")
		}
		if _, err := parseStep("a:broken"); err == nil {
			t.Error("parseStep() accepted a parameter without =")
		}
	})
}
