package handlers

import (
	"github.com/swaggo/swag"

	"wifi_provisioner/web"
)

// apiDoc serves the embedded API description to gin-swagger.
type apiDoc struct{}

func (apiDoc) ReadDoc() string { return string(web.SwaggerJSON) }

func init() {
	swag.Register(swag.Name, apiDoc{})
}
