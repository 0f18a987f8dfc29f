// Package swagger registers the static OpenAPI document served at /docs.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Authenticate an admin account",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/registration/info": {
            "get": {
                "tags": ["registration"],
                "summary": "Current prices, availability, and donation tiers",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api-tokens": {
            "get": {
                "tags": ["api-tokens"],
                "summary": "List the caller's API tokens",
                "parameters": [{"name": "show_revoked", "in": "query", "type": "boolean"}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["api-tokens"],
                "summary": "Issue a new API token",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Validation error"}}
            }
        },
        "/api-tokens/{id}/revoke": {
            "post": {
                "tags": ["api-tokens"],
                "summary": "Revoke an API token",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"302": {"description": "Redirect to index"}}
            }
        },
        "/departments": {
            "get": {
                "tags": ["departments"],
                "summary": "List departments",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/reports": {
            "post": {
                "tags": ["reports"],
                "summary": "Queue a badge count report",
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["reports"],
                "summary": "Report job status and download link",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        }
    }
}`

var swaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Convention Registration API",
	Description:      "Event configuration, registration info, and admin API token management.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(swaggerInfo.InstanceName(), swaggerInfo)
}
