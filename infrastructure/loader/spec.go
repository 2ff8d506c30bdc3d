package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/NickG503/World-Simulator/domain/action"
	"github.com/NickG503/World-Simulator/domain/constraint"
	"github.com/NickG503/World-Simulator/domain/kb"
	"github.com/NickG503/World-Simulator/domain/object"
	"github.com/NickG503/World-Simulator/domain/space"
)

// decodeNode unmarshals a node into out. Strict mode rejects unknown
// fields, which node.Decode cannot do directly, so the node is run
// through a decoder again.
func decodeNode(n *yaml.Node, out any, strict bool) error {
	if !strict {
		return n.Decode(out)
	}
	data, err := yaml.Marshal(n)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Spaces: a single file declares any number of spaces.

type spaceFile struct {
	Spaces []spaceEntry `yaml:"spaces"`
}

type spaceEntry struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Levels []string `yaml:"levels"`
}

func (l *Loader) loadSpaceFile(path string, doc *yaml.Node, k *kb.KnowledgeBase) error {
	var file spaceFile
	if err := l.decode(path, doc, &file); err != nil {
		return err
	}
	for _, entry := range file.Spaces {
		if _, ok := k.Spaces[entry.ID]; ok {
			return fmt.Errorf("%w: space %s in %s", ErrDuplicate, entry.ID, path)
		}
		sp, err := space.New(entry.ID, entry.Levels)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, path, err)
		}
		k.Spaces[entry.ID] = sp
	}
	return nil
}

// Objects: one object type per file, with its dependency constraints.

type objectFile struct {
	Type        string               `yaml:"type"`
	Parts       map[string]partEntry `yaml:"parts"`
	Constraints []constraintEntry    `yaml:"constraints"`
}

type partEntry struct {
	Attributes map[string]attributeEntry `yaml:"attributes"`
}

type attributeEntry struct {
	Space   string `yaml:"space"`
	Default string `yaml:"default"`
	Mutable *bool  `yaml:"mutable"`
}

type constraintEntry struct {
	Type      string    `yaml:"type"`
	Name      string    `yaml:"name"`
	Condition yaml.Node `yaml:"condition"`
	Requires  yaml.Node `yaml:"requires"`
}

func (l *Loader) loadObjectFile(path string, doc *yaml.Node, k *kb.KnowledgeBase) error {
	var file objectFile
	if err := l.decode(path, doc, &file); err != nil {
		return err
	}
	if file.Type == "" {
		return fmt.Errorf("%w: %s: object type is required", ErrInvalidDefinition, path)
	}
	if _, ok := k.Objects[file.Type]; ok {
		return fmt.Errorf("%w: object %s in %s", ErrDuplicate, file.Type, path)
	}

	typ := &object.Type{Name: file.Type}
	for _, partName := range sortedKeys(file.Parts) {
		part := object.Part{Name: partName}
		entry := file.Parts[partName]
		for _, attrName := range sortedKeys(entry.Attributes) {
			attr := entry.Attributes[attrName]
			mutable := true
			if attr.Mutable != nil {
				mutable = *attr.Mutable
			}
			part.Attributes = append(part.Attributes, object.AttributeSpec{
				Name:    attrName,
				Space:   attr.Space,
				Default: attr.Default,
				Mutable: mutable,
			})
		}
		typ.Parts = append(typ.Parts, part)
	}
	k.Objects[file.Type] = typ

	for i, entry := range file.Constraints {
		if entry.Type != "dependency" {
			return fmt.Errorf("%w: %s: unknown constraint type %q", ErrInvalidDefinition, path, entry.Type)
		}
		when, err := l.buildCondition(path, &entry.Condition)
		if err != nil {
			return err
		}
		requires, err := l.buildCondition(path, &entry.Requires)
		if err != nil {
			return err
		}
		name := entry.Name
		if name == "" {
			name = fmt.Sprintf("%s_dependency_%d", file.Type, i+1)
		}
		k.Constraints[file.Type] = append(k.Constraints[file.Type], constraint.Dependency{
			Name:     name,
			When:     when,
			Requires: requires,
		})
	}
	return nil
}

// Actions: one action per file.

type actionFile struct {
	Action        string                    `yaml:"action"`
	ObjectType    string                    `yaml:"object_type"`
	Description   string                    `yaml:"description"`
	Parameters    map[string]parameterEntry `yaml:"parameters"`
	Preconditions []yaml.Node               `yaml:"preconditions"`
	Effects       []yaml.Node               `yaml:"effects"`
}

type parameterEntry struct {
	Type     string   `yaml:"type"`
	Choices  []string `yaml:"choices"`
	Required bool     `yaml:"required"`
}

func (l *Loader) loadActionFile(path string, doc *yaml.Node, k *kb.KnowledgeBase) error {
	var file actionFile
	if err := l.decode(path, doc, &file); err != nil {
		return err
	}
	if file.Action == "" || file.ObjectType == "" {
		return fmt.Errorf("%w: %s: action and object_type are required", ErrInvalidDefinition, path)
	}
	if _, ok := k.Actions[file.Action]; ok {
		return fmt.Errorf("%w: action %s in %s", ErrDuplicate, file.Action, path)
	}

	act := &action.Action{Name: file.Action, ObjectType: file.ObjectType}

	for _, name := range sortedKeys(file.Parameters) {
		entry := file.Parameters[name]
		if entry.Type != "" && entry.Type != "choice" {
			return fmt.Errorf("%w: %s: parameter %s has unsupported type %q", ErrInvalidDefinition, path, name, entry.Type)
		}
		act.Parameters = append(act.Parameters, action.Parameter{Name: name, Choices: entry.Choices})
	}

	for i := range file.Preconditions {
		c, err := l.buildCondition(path, &file.Preconditions[i])
		if err != nil {
			return err
		}
		act.Preconditions = append(act.Preconditions, c)
	}
	for i := range file.Effects {
		e, err := l.buildEffect(path, &file.Effects[i])
		if err != nil {
			return err
		}
		act.Effects = append(act.Effects, e)
	}

	k.Actions[file.Action] = act
	return nil
}

// Conditions.

type conditionEntry struct {
	Type        string      `yaml:"type"`
	Target      string      `yaml:"target"`
	Operator    string      `yaml:"operator"`
	Value       yaml.Node   `yaml:"value"`
	Parameter   string      `yaml:"parameter"`
	ValidValues []string    `yaml:"valid_values"`
	Conditions  []yaml.Node `yaml:"conditions"`
	If          yaml.Node   `yaml:"if"`
	Then        yaml.Node   `yaml:"then"`
}

func (l *Loader) buildCondition(path string, n *yaml.Node) (action.Condition, error) {
	if n.Kind == 0 {
		return nil, fmt.Errorf("%w: %s: missing condition", ErrInvalidDefinition, path)
	}
	var entry conditionEntry
	if err := l.decode(path, n, &entry); err != nil {
		return nil, err
	}

	switch entry.Type {
	case "attribute_check":
		target, err := object.ParsePath(entry.Target)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, path, err)
		}
		op := space.Operator(entry.Operator)
		if !op.IsValid() {
			return nil, fmt.Errorf("%w: %s: %w: %q", ErrInvalidDefinition, path, space.ErrUnknownOperator, entry.Operator)
		}
		levels, fromParam, err := l.conditionValue(path, &entry.Value)
		if err != nil {
			return nil, err
		}
		return action.AttributeCheck{
			Attribute:     target,
			Operator:      op,
			Levels:        levels,
			FromParameter: fromParam,
		}, nil

	case "parameter_equals":
		level, err := scalarLevel(&entry.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, path, err)
		}
		return action.ParameterEquals{Parameter: entry.Parameter, Level: level}, nil

	case "parameter_valid":
		return action.ParameterIn{Parameter: entry.Parameter, Levels: entry.ValidValues}, nil

	case "and", "or":
		subs, err := l.buildConditions(path, entry.Conditions)
		if err != nil {
			return nil, err
		}
		if len(subs) == 0 {
			return nil, fmt.Errorf("%w: %s: %s requires conditions", ErrInvalidDefinition, path, entry.Type)
		}
		if entry.Type == "and" {
			return action.And{All: subs}, nil
		}
		return action.Or{Any: subs}, nil

	case "not":
		subs, err := l.buildConditions(path, entry.Conditions)
		if err != nil {
			return nil, err
		}
		if len(subs) != 1 {
			return nil, fmt.Errorf("%w: %s: not requires exactly one condition", ErrInvalidDefinition, path)
		}
		return action.Not{Inner: subs[0]}, nil

	case "implication":
		ifCond, err := l.buildCondition(path, &entry.If)
		if err != nil {
			return nil, err
		}
		thenCond, err := l.buildCondition(path, &entry.Then)
		if err != nil {
			return nil, err
		}
		return action.Implies{If: ifCond, Then: thenCond}, nil

	default:
		return nil, fmt.Errorf("%w: %s: unknown condition type %q", ErrInvalidDefinition, path, entry.Type)
	}
}

func (l *Loader) buildConditions(path string, nodes []yaml.Node) ([]action.Condition, error) {
	var out []action.Condition
	for i := range nodes {
		c, err := l.buildCondition(path, &nodes[i])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Effects.

type effectEntry struct {
	Type      string      `yaml:"type"`
	Target    string      `yaml:"target"`
	Value     yaml.Node   `yaml:"value"`
	Direction string      `yaml:"direction"`
	Condition yaml.Node   `yaml:"condition"`
	Cases     []caseEntry `yaml:"cases"`
	Then      yaml.Node   `yaml:"then"`
	Else      yaml.Node   `yaml:"else"`
}

type caseEntry struct {
	When yaml.Node `yaml:"when"`
	Then yaml.Node `yaml:"then"`
}

func (l *Loader) buildEffect(path string, n *yaml.Node) (action.Effect, error) {
	if n.Kind == 0 {
		return nil, fmt.Errorf("%w: %s: missing effect", ErrInvalidDefinition, path)
	}
	var entry effectEntry
	if err := l.decode(path, n, &entry); err != nil {
		return nil, err
	}

	switch entry.Type {
	case "set_attribute":
		target, err := object.ParsePath(entry.Target)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, path, err)
		}
		levels, fromParam, err := l.conditionValue(path, &entry.Value)
		if err != nil {
			return nil, err
		}
		eff := action.SetAttribute{Attribute: target, FromParameter: fromParam}
		if fromParam == "" {
			if len(levels) != 1 {
				return nil, fmt.Errorf("%w: %s: set_attribute needs a single value", ErrInvalidDefinition, path)
			}
			eff.Level = levels[0]
		}
		return eff, nil

	case "set_trend":
		target, err := object.ParsePath(entry.Target)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, path, err)
		}
		trend := space.Trend(entry.Direction)
		if !trend.IsValid() {
			return nil, fmt.Errorf("%w: %s: %w: %q", ErrInvalidDefinition, path, space.ErrUnknownTrend, entry.Direction)
		}
		return action.SetTrend{Attribute: target, Trend: trend}, nil

	case "conditional":
		var cases []action.Case
		if len(entry.Cases) > 0 {
			for i := range entry.Cases {
				when, err := l.buildCondition(path, &entry.Cases[i].When)
				if err != nil {
					return nil, err
				}
				then, err := l.buildEffectList(path, &entry.Cases[i].Then)
				if err != nil {
					return nil, err
				}
				cases = append(cases, action.Case{When: when, Then: then})
			}
		} else {
			when, err := l.buildCondition(path, &entry.Condition)
			if err != nil {
				return nil, err
			}
			then, err := l.buildEffectList(path, &entry.Then)
			if err != nil {
				return nil, err
			}
			cases = append(cases, action.Case{When: when, Then: then})
		}

		hasElse := entry.Else.Kind != 0
		var elseEffects []action.Effect
		if hasElse {
			var err error
			elseEffects, err = l.buildEffectList(path, &entry.Else)
			if err != nil {
				return nil, err
			}
		}
		return action.Conditional{Cases: cases, Else: elseEffects, HasElse: hasElse}, nil

	default:
		return nil, fmt.Errorf("%w: %s: unknown effect type %q", ErrInvalidDefinition, path, entry.Type)
	}
}

// buildEffectList accepts either a sequence of effects or a single
// effect mapping.
func (l *Loader) buildEffectList(path string, n *yaml.Node) ([]action.Effect, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.SequenceNode:
		var out []action.Effect
		for i := range n.Content {
			e, err := l.buildEffect(path, n.Content[i])
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil
	case yaml.MappingNode:
		e, err := l.buildEffect(path, n)
		if err != nil {
			return nil, err
		}
		return []action.Effect{e}, nil
	default:
		return nil, fmt.Errorf("%w: %s: effect list must be a mapping or sequence", ErrInvalidDefinition, path)
	}
}

// conditionValue reads a value field: a scalar level, a list of
// levels, or a parameter reference mapping.
func (l *Loader) conditionValue(path string, n *yaml.Node) (levels []string, fromParam string, err error) {
	switch n.Kind {
	case 0:
		return nil, "", fmt.Errorf("%w: %s: missing value", ErrInvalidDefinition, path)
	case yaml.ScalarNode:
		level, err := scalarLevel(n)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, path, err)
		}
		return []string{level}, "", nil
	case yaml.SequenceNode:
		var out []string
		for _, item := range n.Content {
			level, err := scalarLevel(item)
			if err != nil {
				return nil, "", fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, path, err)
			}
			out = append(out, level)
		}
		return out, "", nil
	case yaml.MappingNode:
		var ref struct {
			Type string `yaml:"type"`
			Name string `yaml:"name"`
		}
		if err := n.Decode(&ref); err != nil {
			return nil, "", fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, path, err)
		}
		if ref.Type != "parameter_ref" || ref.Name == "" {
			return nil, "", fmt.Errorf("%w: %s: value mapping must be a parameter_ref with a name", ErrInvalidDefinition, path)
		}
		return nil, ref.Name, nil
	default:
		return nil, "", fmt.Errorf("%w: %s: unsupported value node", ErrInvalidDefinition, path)
	}
}

// scalarLevel reads a scalar as a level name. YAML booleans map onto
// the conventional on/off levels.
func scalarLevel(n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", errors.New("expected a scalar level")
	}
	if n.Tag == "!!bool" {
		var b bool
		if err := n.Decode(&b); err != nil {
			return "", err
		}
		if b {
			return "on", nil
		}
		return "off", nil
	}
	return n.Value, nil
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
