// Package docs holds the swagger description served by dev builds.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/rule_list": {
            "get": {
                "produces": ["application/json"],
                "tags": ["rules"],
                "summary": "List synchronization rules",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/rule.Rule"}}}
                }
            }
        },
        "/api/add_rule": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rules"],
                "summary": "Add a synchronization rule",
                "parameters": [
                    {"description": "rule", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/rule.Rule"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/rule.Rule"}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": true}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/remove_rule": {
            "delete": {
                "description": "Removes the rules mapping source to dest. Without project_id every project's rule goes.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rules"],
                "summary": "Remove synchronization rules",
                "parameters": [
                    {"description": "rule", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/rule.Rule"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "integer"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/issues": {
            "get": {
                "produces": ["application/json"],
                "tags": ["issues"],
                "summary": "List issues",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object", "additionalProperties": true}}}
                }
            }
        },
        "/api/issues/{issue_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["issues"],
                "summary": "Get an issue",
                "parameters": [
                    {"type": "string", "name": "issue_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/export": {
            "post": {
                "produces": ["application/json"],
                "tags": ["export"],
                "summary": "Export all documents to object storage",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "rule.Rule": {
            "type": "object",
            "required": ["dest", "source"],
            "properties": {
                "dest": {"type": "string"},
                "id": {"type": "string"},
                "project_id": {"type": "string"},
                "source": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Task Trackers Synchronizer API",
	Description:      "Synchronization rules and mirrored issues.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
