package object

import (
	"errors"
	"testing"

	"github.com/NickG503/World-Simulator/domain/space"
	"github.com/NickG503/World-Simulator/domain/state"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Path
		wantErr bool
	}{
		{name: "valid", in: "battery.level", want: Path{Part: "battery", Attribute: "level"}},
		{name: "missing dot", in: "battery", wantErr: true},
		{name: "empty part", in: ".level", wantErr: true},
		{name: "empty attribute", in: "battery.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPath) {
					t.Errorf("ParsePath() error = %v, want ErrInvalidPath", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePath() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParsePath() = %v, want %v", got, tt.want)
			}
		})
	}
}

func testType() *Type {
	return &Type{
		Name: "flashlight",
		Parts: []Part{
			{Name: "battery", Attributes: []AttributeSpec{
				{Name: "level", Space: "battery_level", Default: UnknownDefault, Mutable: true},
			}},
			{Name: "bulb", Attributes: []AttributeSpec{
				{Name: "state", Space: "bulb_state", Default: "off", Mutable: true},
				{Name: "color", Space: "color", Default: "white", Mutable: false},
			}},
		},
	}
}

func testSpaces(t *testing.T) map[string]*space.Space {
	t.Helper()
	spaces := make(map[string]*space.Space)
	for name, levels := range map[string][]string{
		"battery_level": {"empty", "low", "medium", "high"},
		"bulb_state":    {"off", "on"},
		"color":         {"white", "red"},
	} {
		sp, err := space.New(name, levels)
		if err != nil {
			t.Fatalf("space.New(%s) error = %v", name, err)
		}
		spaces[name] = sp
	}
	return spaces
}

func TestInstantiate(t *testing.T) {
	typ := testType()
	spaces := testSpaces(t)

	snap, err := typ.Instantiate(spaces, nil)
	if err != nil {
		t.Fatalf("Instantiate() error = %v", err)
	}

	if v, _ := snap.Get("battery.level"); v.IsKnown() {
		t.Errorf("unknown default should expand to full set, got %v", v)
	} else if len(v.Levels) != 4 {
		t.Errorf("battery.level candidates = %v, want full space", v.Levels)
	}
	if v, _ := snap.Get("bulb.state"); !v.Equal(state.Known("off")) {
		t.Errorf("bulb.state = %v, want off", v)
	}
}

func TestInstantiateOverrides(t *testing.T) {
	typ := testType()
	spaces := testSpaces(t)

	snap, err := typ.Instantiate(spaces, map[string]state.Value{
		"battery.level": state.Known("low"),
	})
	if err != nil {
		t.Fatalf("Instantiate() error = %v", err)
	}
	if v, _ := snap.Get("battery.level"); !v.Equal(state.Known("low")) {
		t.Errorf("battery.level = %v, want low", v)
	}

	_, err = typ.Instantiate(spaces, map[string]state.Value{
		"battery.level": state.Known("overcharged"),
	})
	if !errors.Is(err, ErrBadDefault) {
		t.Errorf("Instantiate() error = %v, want ErrBadDefault", err)
	}
}

func TestAttribute(t *testing.T) {
	typ := testType()

	spec, err := typ.Attribute(Path{Part: "bulb", Attribute: "color"})
	if err != nil {
		t.Fatalf("Attribute() error = %v", err)
	}
	if spec.Mutable {
		t.Error("bulb.color should be immutable")
	}

	if _, err := typ.Attribute(Path{Part: "lens", Attribute: "state"}); !errors.Is(err, ErrUnknownAttribute) {
		t.Errorf("Attribute() error = %v, want ErrUnknownAttribute", err)
	}
}
