package appfs

import "embed"

// FS holds files needed at runtime; kept in its own package so both the API
// and the admin CLI can embed them from the repository root.
//go:embed migrations
var FS embed.FS
