// Package templates holds the server-rendered pages.
package templates

import (
	"embed"
	"html/template"
)

//go:embed *.html
var files embed.FS

func Parse() (*template.Template, error) {
	return template.ParseFS(files, "*.html")
}
