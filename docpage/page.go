package docpage

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
)

// pageTemplate renders the tool catalog as a single static page.
var pageTemplate = template.Must(template.New("docs").Funcs(template.FuncMap{
	"schema": renderJSON,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} — API documentation</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; }
h1 { border-bottom: 2px solid #ddd; padding-bottom: .3rem; }
h2 { margin-top: 2rem; }
code, pre { background: #f5f5f5; border-radius: 4px; }
pre { padding: .75rem; overflow-x: auto; }
code { padding: .1rem .3rem; }
.summary { color: #444; }
.notes { border-left: 3px solid #bbb; padding-left: .75rem; color: #333; }
.ref a { margin-right: 1rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="summary">{{len .Docs}} tools available. Machine-readable catalog at <a href="docs.json">docs.json</a>.</p>
{{range .Docs}}
<h2 id="{{.Name}}"><code>{{.Name}}</code></h2>
{{if .Summary}}<p class="summary">{{.Summary}}</p>{{end}}
{{if .Notes}}<p class="notes">{{.Notes}}</p>{{end}}
{{if .Tool}}{{if .Tool.InputSchema}}<h3>Input schema</h3>
<pre>{{schema .Tool.InputSchema}}</pre>{{end}}{{end}}
{{range .Examples}}<h3>Example: {{.Name}}</h3>
{{if .Description}}<p>{{.Description}}</p>{{end}}
{{if .Args}}<pre>{{schema .Args}}</pre>{{end}}
{{end}}
{{if .References}}<p class="ref">{{range .References}}<a href="{{.}}">{{.}}</a>{{end}}</p>{{end}}
{{end}}
</body>
</html>
`))

func renderJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

type pageData struct {
	Title string
	Docs  []ToolDoc
}

// PageHandler serves the HTML documentation page.
func PageHandler(title string, store *Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		data := pageData{Title: title, Docs: store.Catalog()}
		if err := pageTemplate.Execute(w, data); err != nil {
			slog.Error("docpage: render failed", "error", err)
		}
	})
}

// JSONHandler serves the catalog as JSON under /docs.json.
func JSONHandler(store *Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(store.Catalog()); err != nil {
			slog.Error("docpage: encode catalog failed", "error", err)
		}
	})
}
