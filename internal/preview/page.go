package preview

import (
	"html/template"
	"net/http"
)

// datastarScript is the datastar browser client, which executes the reload
// scripts streamed from /events.
const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{if .Title}}{{.Title}}{{else}}sqlchart{{end}}</title>
<script type="module" src="{{.Script}}"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; background: #fafafa; color: #222; }
img { max-width: 100%; background: #fff; box-shadow: 0 1px 4px rgba(0,0,0,.15); }
.error { color: #b00020; white-space: pre-wrap; font-family: ui-monospace, monospace; }
.meta { color: #777; font-size: .85rem; }
</style>
</head>
<body data-init="@get('/events')">
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .ID}}<img src="/chart.svg?id={{.ID}}" alt="{{.Title}}">
<p class="meta">{{.Kind}} chart {{.ID}} &middot; <a href="/chart.png?id={{.ID}}">png</a> &middot; <a href="/chart.svg?id={{.ID}}">svg</a></p>
{{else if not .Error}}<p class="meta">Waiting for the first render&hellip;</p>{{end}}
</body>
</html>
`))

type pageData struct {
	Script string
	ID     string
	Title  string
	Kind   string
	Error  string
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	data := pageData{Script: datastarScript}

	fig, err := s.Figure()
	if fig != nil {
		data.ID = fig.ID()
		data.Title = fig.Title()
		data.Kind = string(fig.Kind())
	}
	if err != nil {
		data.Error = err.Error()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("failed to render page", "error", err)
	}
}
