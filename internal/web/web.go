// Package web embeds the HTML templates.
package web

import (
	"embed"
	"html/template"
	"net/url"
	"strings"
	"time"
)

//go:embed templates
var files embed.FS

// Templates parses every page and partial; each file defines a template named
// after its path under templates/, e.g. "posts/index.html".
func Templates(mediaURL func(string) string) (*template.Template, error) {
	return template.New("").Funcs(Funcs(mediaURL)).ParseFS(files, "templates/*/*.html")
}

func Funcs(mediaURL func(string) string) template.FuncMap {
	return template.FuncMap{
		"mediaURL": mediaURL,
		"date": func(t time.Time) string {
			return t.Format("2 Jan 2006 15:04")
		},
		"truncateWords": truncateWords,
		"pathEscape":    url.PathEscape,
	}
}

func truncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ") + " …"
}
