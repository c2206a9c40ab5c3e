// Package web holds the pages served by the device.
package web

import _ "embed"

// Portal is the credential form served in fallback mode.
//
//go:embed wifi.html
var Portal []byte

// Dashboard is the control page served once joined.
//
//go:embed index.html
var Dashboard []byte

// SwaggerJSON describes the HTTP API for /swagger.
//
//go:embed swagger.json
var SwaggerJSON []byte
