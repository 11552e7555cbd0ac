// Package swagger registers the OpenAPI document served under /swagger.
package swagger

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
        "/guide/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["guide"],
                "summary": "Get Run Status",
                "responses": {"200": {"description": "Run Status"}}
            }
        },
        "/guide/runs": {
            "post": {
                "produces": ["application/json"],
                "tags": ["guide"],
                "summary": "Trigger Run",
                "responses": {
                    "202": {"description": "Run Started"},
                    "409": {"description": "Run In Progress"}
                }
            }
        },
        "/guide/document": {
            "get": {
                "produces": ["application/json"],
                "tags": ["guide"],
                "summary": "Get Document",
                "responses": {
                    "200": {"description": "Document"},
                    "404": {"description": "No Document"}
                }
            }
        },
        "/guide/elements/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["guide"],
                "summary": "Get Element",
                "parameters": [{"type": "string", "description": "Element ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Element"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/guide/cache/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["guide"],
                "summary": "Get Cache Entry",
                "parameters": [{"type": "string", "description": "Element ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Cache Entry"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/guide/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["guide"],
                "summary": "Get Run History",
                "parameters": [{"type": "integer", "default": 20, "description": "Maximum number of runs", "name": "limit", "in": "query"}],
                "responses": {
                    "200": {"description": "Runs"},
                    "500": {"description": "Internal Server Error"},
                    "503": {"description": "History Not Configured"}
                }
            }
        },
        "/integrity": {
            "get": {
                "produces": ["application/json"],
                "tags": ["integrity"],
                "summary": "Run All Integrity Checks",
                "responses": {"200": {"description": "Combined Report"}}
            }
        },
        "/integrity/structure": {
            "get": {
                "produces": ["application/json"],
                "tags": ["integrity"],
                "summary": "Check Structure",
                "parameters": [{"type": "boolean", "description": "Fix missing folders", "name": "fix", "in": "query"}],
                "responses": {
                    "200": {"description": "Structure Report"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/integrity/cache": {
            "get": {
                "produces": ["application/json"],
                "tags": ["integrity"],
                "summary": "Check Cache File",
                "responses": {"200": {"description": "Cache Report"}}
            }
        },
        "/integrity/database": {
            "get": {
                "produces": ["application/json"],
                "tags": ["integrity"],
                "summary": "Check Database",
                "responses": {
                    "200": {"description": "Database Report"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/integrity/document": {
            "get": {
                "produces": ["application/json"],
                "tags": ["integrity"],
                "summary": "Check Document",
                "responses": {
                    "200": {"description": "Document Report"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Guide Builder API",
	Description:      "API for building television guide documents from a remote catalog.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
