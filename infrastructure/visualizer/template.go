package visualizer

// pageTemplate is the single-file HTML page. Node details are rendered
// server side into hidden panels; a small script swaps the visible one.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Run {{.RunID}}</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
:root {
  --bg-dark: #0d1117;
  --bg-card: #161b22;
  --border: #30363d;
  --text: #c9d1d9;
  --text-dim: #8b949e;
  --accent-cyan: #58a6ff;
  --accent-green: #3fb950;
  --accent-red: #f85149;
  --accent-gold: #d29922;
  --accent-purple: #a371f7;
}
body {
  font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Helvetica, Arial, sans-serif;
  background: var(--bg-dark);
  color: var(--text);
  min-height: 100vh;
}
.container {
  display: grid;
  grid-template-columns: 1fr 400px;
  grid-template-rows: auto 1fr;
  height: 100vh;
}
header {
  grid-column: 1 / -1;
  padding: 16px 24px;
  background: var(--bg-card);
  border-bottom: 1px solid var(--border);
}
.logo {
  font-size: 1.4em;
  font-weight: 600;
  background: linear-gradient(135deg, var(--accent-cyan), var(--accent-green));
  -webkit-background-clip: text;
  -webkit-text-fill-color: transparent;
  background-clip: text;
}
.meta { color: var(--text-dim); font-size: 0.9em; margin-top: 6px; display: flex; gap: 20px; flex-wrap: wrap; }
.graph-container { overflow: auto; }
svg { display: block; margin: 0 auto; }
.edge { fill: none; stroke: var(--border); stroke-width: 1.5; }
.edge.failed, .edge.rejected, .edge.constraint_violated { stroke: var(--accent-red); stroke-dasharray: 4 3; }
.node circle { fill: var(--bg-card); stroke-width: 2; cursor: pointer; }
.node.initial circle { stroke: var(--accent-purple); }
.node.success circle { stroke: var(--accent-green); }
.node.failed circle, .node.rejected circle, .node.constraint_violated circle { stroke: var(--accent-red); }
.node.selected circle { fill: #1f2937; stroke-width: 3.5; }
.node.merged circle { stroke-dasharray: 5 3; }
.node text { fill: var(--text); font-size: 12px; text-anchor: middle; pointer-events: none; }
.layer-action { fill: var(--text-dim); font-size: 12px; font-style: italic; }
.detail {
  border-left: 1px solid var(--border);
  background: var(--bg-card);
  overflow-y: auto;
  padding: 20px;
}
.panel { display: none; }
.panel.visible { display: block; }
.panel h2 { font-size: 1.2em; margin-bottom: 4px; }
.panel .action { color: var(--accent-cyan); margin-bottom: 12px; }
.panel .status { font-size: 0.85em; padding: 2px 8px; border-radius: 10px; border: 1px solid; }
.panel .status.initial { color: var(--accent-purple); }
.panel .status.success { color: var(--accent-green); }
.panel .status.failed, .panel .status.rejected, .panel .status.constraint_violated { color: var(--accent-red); }
.panel .condition { color: var(--accent-gold); font-size: 0.9em; margin: 4px 0; }
.section { margin-top: 16px; }
.section h3 { font-size: 0.85em; text-transform: uppercase; color: var(--text-dim); margin-bottom: 8px; }
table { width: 100%; border-collapse: collapse; font-size: 0.9em; }
td { padding: 4px 6px; border-bottom: 1px solid var(--border); }
td.attr { color: var(--text-dim); }
tr.changed td.attr { color: var(--accent-cyan); }
.violation { color: var(--accent-red); font-size: 0.9em; }
.deferred { color: var(--accent-gold); font-size: 0.9em; }
</style>
</head>
<body>
<div class="container">
  <header>
    <div class="logo">worldsim</div>
    <div class="meta">
      <span>run {{.RunID}}</span>
      <span>{{.ObjectType}}</span>
      <span>{{.CreatedAt}}</span>
      <span>{{.Stats.Nodes}} nodes, {{.Stats.Leaves}} leaves, depth {{.Stats.Depth}}</span>
      {{if .Steps}}<span>steps: {{range $i, $s := .Steps}}{{if $i}} &rarr; {{end}}{{$s}}{{end}}</span>{{end}}
    </div>
  </header>
  <div class="graph-container">
    <svg viewBox="0 0 {{.Width}} {{.Height}}" width="{{.Width}}" height="{{.Height}}">
      {{range .EdgePaths}}<path class="edge {{.Status}}" d="{{.Path}}"/>
      {{end}}
      {{range .Layers}}<text class="layer-action" x="20" y="{{.Y}}">{{.Action}}</text>
      {{end}}
      {{range .Nodes}}<g class="node {{.Status}}{{if .Merged}} merged{{end}}" id="node-{{.ID}}" onclick="selectNode('{{.ID}}')">
        <circle cx="{{.X}}" cy="{{.Y}}" r="22"/>
        <text x="{{.X}}" y="{{.Y}}" dy="4">{{.Label}}</text>
      </g>
      {{end}}
    </svg>
  </div>
  <div class="detail">
    {{range .Nodes}}
    <div class="panel" id="panel-{{.ID}}">
      <h2>{{.ID}} <span class="status {{.Status}}">{{.Status}}</span></h2>
      <div class="action">{{if .Action}}{{.Action}}{{else}}initial state{{end}}{{if .Merged}} (merged){{end}}</div>
      {{range .Conditions}}<div class="condition">assuming {{.}}</div>{{end}}
      {{if .Violations}}<div class="section"><h3>Violations</h3>
        {{range .Violations}}<div class="violation">{{.}}</div>{{end}}
      </div>{{end}}
      {{if .Deferred}}<div class="section"><h3>Deferred checks</h3>
        {{range .Deferred}}<div class="deferred">{{.}}</div>{{end}}
      </div>{{end}}
      {{if .Changes}}<div class="section"><h3>Changes</h3>
        <table>
        {{range .Changes}}<tr><td class="attr">{{.Attribute}}</td><td>{{.Before}} &rarr; {{.After}}</td><td class="attr">{{.Kind}}</td></tr>
        {{end}}
        </table>
      </div>{{end}}
      <div class="section"><h3>World state</h3>
        <table>
        {{range .Attributes}}<tr{{if .Changed}} class="changed"{{end}}><td class="attr">{{.Name}}</td><td>{{.Value}}</td></tr>
        {{end}}
        </table>
      </div>
    </div>
    {{end}}
  </div>
</div>
<script>
function selectNode(id) {
  document.querySelectorAll('.panel').forEach(function(p) { p.classList.remove('visible'); });
  document.querySelectorAll('.node').forEach(function(n) { n.classList.remove('selected'); });
  var panel = document.getElementById('panel-' + id);
  if (panel) panel.classList.add('visible');
  var node = document.getElementById('node-' + id);
  if (node) node.classList.add('selected');
}
selectNode('state0');
</script>
</body>
</html>
`
