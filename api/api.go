// Package api embeds the OpenAPI description of the HTTP API.
package api

import (
	_ "embed"
)

// OpenAPISpec is the OpenAPI 3 document served at /api/v1/openapi.yaml
//
//go:embed openapi/openapi.yaml
var OpenAPISpec []byte
