package main

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
)

// fileServerHandler serves ui/static. Assets are cached forever; anything that is not a regular file gets the
// not-found page with the visitor's session so the navigation still matches.
func (app *application) fileServerHandler() (http.Handler, error) {
	root, err := uiDir("static", "")
	if err != nil {
		return nil, fmt.Errorf("locate static files: %w", err)
	}
	static := os.DirFS(root)
	assets := cacheForever(http.FileServerFS(static))
	notFound := noCache(app.sessionManager.LoadAndSave(
		app.webAuthnHandler.AuthenticateMiddleware(http.HandlerFunc(app.notFound))))

	serve := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean(r.URL.Path)[1:]
		if info, statErr := fs.Stat(static, name); !fs.ValidPath(name) || statErr != nil || !info.Mode().IsRegular() {
			notFound.ServeHTTP(w, r)
			return
		}
		assets.ServeHTTP(w, r)
	})
	return app.recoverPanic(app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(
		commonContext(app.timeout(defaultTimeout, serve)))))), nil
}
