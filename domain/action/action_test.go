package action

import (
	"errors"
	"testing"

	"github.com/NickG503/World-Simulator/domain/object"
	"github.com/NickG503/World-Simulator/domain/space"
)

func levelPath(t *testing.T) object.Path {
	t.Helper()
	p, err := object.ParsePath("battery.level")
	if err != nil {
		t.Fatalf("ParsePath() error = %v", err)
	}
	return p
}

func TestValidate(t *testing.T) {
	path := levelPath(t)

	flat := Conditional{
		Cases: []Case{
			{When: AttributeCheck{Attribute: path, Operator: space.OpEquals, Levels: []string{"high"}},
				Then: []Effect{SetAttribute{Attribute: path, Level: "medium"}}},
		},
		Else:    []Effect{SetAttribute{Attribute: path, Level: "empty"}},
		HasElse: true,
	}
	nested := Conditional{
		Cases: []Case{
			{When: AttributeCheck{Attribute: path, Operator: space.OpEquals, Levels: []string{"high"}},
				Then: []Effect{flat}},
		},
	}

	tests := []struct {
		name    string
		act     Action
		wantErr error
	}{
		{
			name: "valid flat conditional",
			act:  Action{Name: "discharge", ObjectType: "flashlight", Effects: []Effect{flat}},
		},
		{
			name:    "missing name",
			act:     Action{ObjectType: "flashlight"},
			wantErr: ErrMissingName,
		},
		{
			name:    "missing object type",
			act:     Action{Name: "discharge"},
			wantErr: ErrMissingObjectType,
		},
		{
			name:    "nested conditional",
			act:     Action{Name: "discharge", ObjectType: "flashlight", Effects: []Effect{nested}},
			wantErr: ErrNestedConditional,
		},
		{
			name:    "empty conditional",
			act:     Action{Name: "discharge", ObjectType: "flashlight", Effects: []Effect{Conditional{}}},
			wantErr: ErrEmptyConditional,
		},
		{
			name: "duplicate parameter",
			act: Action{Name: "set", ObjectType: "flashlight",
				Parameters: []Parameter{{Name: "mode"}, {Name: "mode"}}},
			wantErr: ErrDuplicateParam,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.act.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBindParameters(t *testing.T) {
	act := Action{
		Name:       "set_mode",
		ObjectType: "flashlight",
		Parameters: []Parameter{{Name: "mode", Choices: []string{"eco", "bright"}}},
	}

	tests := []struct {
		name     string
		bindings map[string]string
		wantErr  error
	}{
		{name: "valid", bindings: map[string]string{"mode": "eco"}},
		{name: "missing binding", bindings: map[string]string{}, wantErr: ErrUnknownParam},
		{name: "bad choice", bindings: map[string]string{"mode": "blinding"}, wantErr: ErrBadParamChoice},
		{name: "undeclared parameter", bindings: map[string]string{"mode": "eco", "extra": "x"}, wantErr: ErrUnknownParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := act.BindParameters(tt.bindings)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("BindParameters() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
