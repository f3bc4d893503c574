package router

import (
	"html/template"
	"io"
)

// ClientPath is where the live client script is served.
const ClientPath = "/_live/live.js"

// Page is what a Layout wraps around a component's first render.
type Page struct {
	Title string

	// Path is the URL the live client reconnects to.
	Path string

	// Body is the rendered component.
	Body []byte
}

// Layout writes a complete HTML document for the initial render.
type Layout func(w io.Writer, p Page) error

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<link rel="stylesheet" href="/_live/app.css">
</head>
<body>
<main id="live-root" data-live-root data-live-path="{{.Path}}">{{.Body}}</main>
<script src="{{.Script}}" defer></script>
</body>
</html>
`))

// DefaultLayout renders the component inside the live root element the
// client script attaches to.
func DefaultLayout(w io.Writer, p Page) error {
	return pageTemplate.Execute(w, struct {
		Title  string
		Path   string
		Body   template.HTML
		Script string
	}{
		Title:  p.Title,
		Path:   p.Path,
		Body:   template.HTML(p.Body),
		Script: ClientPath,
	})
}
