// Package web embeds the HTML templates and static assets served by the UI.
package web

import "embed"

// TemplatesFS embeds HTML templates for server-side rendering.
// base.html holds the layout; every other file is a page that fills its
// "content" block.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets (css/js/images).
//
//go:embed static/*
var StaticFS embed.FS
