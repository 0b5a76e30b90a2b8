// Package appfs bundles the SQL migrations and email templates into the binary.
package appfs

import "embed"

// all: is needed for the templates tree, embed skips _-prefixed files otherwise
// and the shared _base layouts would be left out of the binary.
//
//go:embed migrations all:templates
var FS embed.FS
