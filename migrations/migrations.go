// Package migrations содержит SQL-миграции, вшиваемые в бинарь
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
