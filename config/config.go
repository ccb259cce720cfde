package config

import (
	"embed"
)

//go:embed ddc-brightness.desktop 99-ddc-i2c.rules i2c-dev.conf
var embeddedFiles embed.FS

func ConfigFS() embed.FS {
	return embeddedFiles
}
