// Package client embeds the browser-side live client and stylesheet.
package client

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed src/*.js src/*.css
var assets embed.FS

// Assets returns the embedded filesystem rooted at src.
func Assets() fs.FS {
	fsys, err := fs.Sub(assets, "src")
	if err != nil {
		panic(err)
	}
	return fsys
}

// Handler serves the embedded assets. Mount it under a prefix with
// http.StripPrefix.
func Handler() http.Handler {
	return http.FileServer(http.FS(Assets()))
}

// GetFile returns the contents of an embedded file.
func GetFile(name string) ([]byte, error) {
	return assets.ReadFile("src/" + name)
}
