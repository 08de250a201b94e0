package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/myrjola/gympal/internal/contexthelpers"
)

// BaseTemplateData is embedded in the data of every page. base.gohtml reads it to draw the navigation.
type BaseTemplateData struct {
	Authenticated bool
	CurrentPath   string
}

func newBaseTemplateData(r *http.Request) BaseTemplateData {
	ctx := r.Context()
	return BaseTemplateData{
		Authenticated: contexthelpers.IsAuthenticated(ctx),
		CurrentPath:   contexthelpers.CurrentPath(ctx),
	}
}

type errorTemplateData struct {
	BaseTemplateData
	Message string
}

// uiDir returns the directory ui/<name>. An explicit override wins; otherwise the working directory and then its
// parents are searched for the ui folder next to go.mod, which lets tests run from their package directory.
func uiDir(name string, override string) (string, error) {
	dir := override
	if dir == "" {
		root, err := moduleRoot()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(root, "ui", name)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("stat ui/%s: %w", name, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("ui/%s is not a directory: %s", name, dir)
	}
	return dir, nil
}

func moduleRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	if _, err = os.Stat(filepath.Join(wd, "ui")); err == nil {
		return wd, nil
	}
	for dir := wd; ; {
		if _, err = os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod above %s: %w", wd, os.ErrNotExist)
		}
		dir = parent
	}
}
