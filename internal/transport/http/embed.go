package http

import "embed"

// Page templates are embedded so the binary needs no files on disk.
//
//go:embed templates/*.html
var templatesFS embed.FS
