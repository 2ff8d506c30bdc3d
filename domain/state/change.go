package state

// ChangeKind categorizes how an attribute moved between snapshots.
type ChangeKind string

// Change kinds.
const (
	// ChangeValue is a direct write of a new level.
	ChangeValue ChangeKind = "value"
	// ChangeTrend is a trend assignment and its derived candidate set.
	ChangeTrend ChangeKind = "trend"
	// ChangeNarrowing restricts a candidate set during branching.
	ChangeNarrowing ChangeKind = "narrowing"
	// ChangeConstraint records a dependency rule forcing a value.
	ChangeConstraint ChangeKind = "constraint"
)

// Change records one attribute delta on an edge between two snapshots.
type Change struct {
	Attribute string     `yaml:"attribute" json:"attribute"`
	Before    Value      `yaml:"before" json:"before"`
	After     Value      `yaml:"after" json:"after"`
	Kind      ChangeKind `yaml:"kind" json:"kind"`
}

// Diff computes per-attribute changes between two snapshots over the
// same object. Unchanged attributes are omitted.
func Diff(before, after Snapshot) []Change {
	var out []Change
	for _, attr := range after.Attributes() {
		b, okB := before.Get(attr)
		a, _ := after.Get(attr)
		if okB && b.Equal(a) {
			continue
		}
		out = append(out, Change{Attribute: attr, Before: b, After: a, Kind: ChangeValue})
	}
	return out
}

// FilterChanges drops no-op entries where before and after are equal.
func FilterChanges(changes []Change) []Change {
	out := changes[:0:0]
	for _, c := range changes {
		if c.Before.Equal(c.After) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ApplyChanges returns a snapshot with each change's after value set.
// It is the replay counterpart of Diff.
func ApplyChanges(snap Snapshot, changes []Change) Snapshot {
	if len(changes) == 0 {
		return snap
	}
	overrides := make(map[string]Value, len(changes))
	for _, c := range changes {
		overrides[c.Attribute] = c.After
	}
	return snap.With(overrides)
}
