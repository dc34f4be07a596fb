package views

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"aqmap-server/internal/modules/airquality/detail"
)

var mapTmpl *template.Template

var errNotLoaded = errors.New("map template not loaded: call views.LoadTemplates during startup")

// loadTemplatesFromFS parses the page and partial templates found under dir.
// Tests use it to feed broken file systems.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	mapTmpl = tmpl
	return nil
}

// LoadTemplates loads the embedded templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

var funcs = template.FuncMap{
	"bandClass": func(b fmt.Stringer) string { return "band-" + b.String() },
}

// MapData is the view model of the map page.
type MapData struct {
	Title      string
	SnapshotID string
	FetchedAt  string
	Readings   int
	Labels     int
	Good       int
	Medium     int
	Bad        int
	// Selected is the open detail panel, if any.
	Selected *detail.Detail
}

func RenderMap(w io.Writer, data *MapData) error {
	if mapTmpl == nil {
		return errNotLoaded
	}
	return mapTmpl.ExecuteTemplate(w, "map.html", data)
}

// RenderDetailPartial renders the detail modal for HTMX swaps. A nil detail
// renders the closed (empty) state.
func RenderDetailPartial(w io.Writer, d *detail.Detail) error {
	if mapTmpl == nil {
		return errNotLoaded
	}
	return mapTmpl.ExecuteTemplate(w, "partials/detail.html", d)
}
