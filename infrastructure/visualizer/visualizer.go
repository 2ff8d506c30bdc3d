// Package visualizer renders a persisted run record as a
// self-contained HTML page: a layered SVG of the simulation graph with
// a per-node detail panel.
package visualizer

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/NickG503/World-Simulator/domain/graph"
	"github.com/NickG503/World-Simulator/domain/history"
)

// Layout constants, in SVG user units.
const (
	nodeRadius  = 22
	layerHeight = 120
	nodeSpacing = 110
	marginX     = 80
	marginY     = 60
)

// Renderer renders run records to HTML.
type Renderer struct {
	tmpl *template.Template
}

// New creates a renderer.
func New() (*Renderer, error) {
	tmpl, err := template.New("run").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("visualizer: parse template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the HTML page for a record.
func (r *Renderer) Render(w io.Writer, rec *history.Record) error {
	view, err := buildView(rec)
	if err != nil {
		return err
	}
	return r.tmpl.Execute(w, view)
}

// RenderFile writes the HTML page to a file.
func (r *Renderer) RenderFile(path string, rec *history.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("visualizer: create output file: %w", err)
	}
	if err := r.Render(f, rec); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// pageView is the template's root data.
type pageView struct {
	RunID      string
	ObjectType string
	CreatedAt  string
	Steps      []string
	Stats      graph.Stats
	Width      int
	Height     int
	Nodes      []nodeView
	EdgePaths  []edgeView
	Layers     []layerView
}

type nodeView struct {
	ID         string
	Label      string
	Action     string
	Status     string
	Merged     bool
	X, Y       int
	Conditions []string
	Changes    []changeView
	Attributes []attrView
	Violations []string
	Deferred   []string
}

type changeView struct {
	Attribute string
	Before    string
	After     string
	Kind      string
}

type attrView struct {
	Name    string
	Value   string
	Changed bool
}

type edgeView struct {
	Path   string
	Status string
}

type layerView struct {
	Y      int
	Action string
}

func buildView(rec *history.Record) (*pageView, error) {
	// Group nodes into layers by depth, keeping record order.
	layers := make(map[int][]history.Node)
	maxDepth := 0
	for _, n := range rec.Nodes {
		layers[n.Depth] = append(layers[n.Depth], n)
		if n.Depth > maxDepth {
			maxDepth = n.Depth
		}
	}

	maxWidth := 0
	for _, l := range layers {
		if len(l) > maxWidth {
			maxWidth = len(l)
		}
	}

	view := &pageView{
		RunID:      rec.ID,
		ObjectType: rec.ObjectType,
		CreatedAt:  rec.CreatedAt.Format("2006-01-02 15:04:05 MST"),
		Stats:      rec.Stats,
		Width:      maxWidth*nodeSpacing + 2*marginX,
		Height:     (maxDepth+1)*layerHeight + 2*marginY,
	}
	for _, s := range rec.Steps {
		view.Steps = append(view.Steps, formatStep(s))
	}

	// Position nodes: layers top to bottom, centered horizontally.
	type pos struct{ x, y int }
	positions := make(map[string]pos, len(rec.Nodes))
	for depth := 0; depth <= maxDepth; depth++ {
		layer := layers[depth]
		y := marginY + depth*layerHeight
		offset := (view.Width - len(layer)*nodeSpacing) / 2
		for i, n := range layer {
			positions[n.ID] = pos{x: offset + i*nodeSpacing + nodeSpacing/2, y: y}
		}
		if len(layer) > 0 && layer[0].Action != "" {
			view.Layers = append(view.Layers, layerView{
				Y:      y - layerHeight/2,
				Action: layer[0].Action,
			})
		}
	}

	for _, n := range rec.Nodes {
		p := positions[n.ID]

		nv := nodeView{
			ID:     n.ID,
			Label:  strings.Replace(n.ID, "state", "S", 1),
			Action: n.Action,
			Status: string(n.Status),
			Merged: len(n.Edges) > 1,
			X:      p.x,
			Y:      p.y,
		}

		changed := map[string]bool{}
		for _, e := range n.Edges {
			if !e.Condition.IsZero() {
				nv.Conditions = append(nv.Conditions, e.Condition.String())
			}
			for _, c := range e.Changes {
				changed[c.Attribute] = true
				nv.Changes = append(nv.Changes, changeView{
					Attribute: c.Attribute,
					Before:    c.Before.String(),
					After:     c.After.String(),
					Kind:      string(c.Kind),
				})
			}

			pp, ok := positions[e.Parent]
			if !ok {
				continue
			}
			midY := (pp.y + p.y) / 2
			view.EdgePaths = append(view.EdgePaths, edgeView{
				Path: fmt.Sprintf("M%d,%d Q%d,%d %d,%d",
					pp.x, pp.y+nodeRadius, pp.x, midY, p.x, p.y-nodeRadius),
				Status: string(n.Status),
			})
		}

		snap, err := rec.Snapshot(n.ID)
		if err != nil {
			return nil, err
		}
		attrs := snap.Attributes()
		sort.Strings(attrs)
		for _, attr := range attrs {
			v, _ := snap.Get(attr)
			nv.Attributes = append(nv.Attributes, attrView{
				Name:    attr,
				Value:   v.String(),
				Changed: changed[attr],
			})
		}

		for _, viol := range n.Violations {
			nv.Violations = append(nv.Violations, viol.Dependency)
		}
		for _, def := range n.Deferred {
			nv.Deferred = append(nv.Deferred, def.Dependency)
		}

		view.Nodes = append(view.Nodes, nv)
	}

	return view, nil
}

func formatStep(s history.Step) string {
	if len(s.Params) == 0 {
		return s.Action
	}
	keys := make([]string, 0, len(s.Params))
	for k := range s.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + s.Params[k]
	}
	return s.Action + "(" + strings.Join(parts, ", ") + ")"
}
