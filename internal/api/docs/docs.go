// Package docs registers the OpenAPI document served under /swagger/.
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
        "/api/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a tenant",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List users of the caller's tenant",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.IdentitySummary"}}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get the caller's own summary",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.IdentitySummary"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get a user of the caller's tenant",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.IdentitySummary"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {"tags": ["health"], "summary": "Liveness check", "responses": {"200": {"description": "OK"}}}
        },
        "/health/ready": {
            "get": {"tags": ["health"], "summary": "Readiness check", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        }
    },
    "definitions": {
        "domain.IdentitySummary": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "tenantId": {"type": "string"},
                "tenantName": {"type": "string"},
                "role": {"type": "string", "enum": ["ADMIN", "USER"]}
            }
        },
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.authResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "tokenType": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.IdentitySummary"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "properties": {
                "tenantSlug": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.registerRequest": {
            "type": "object",
            "required": ["tenantName", "tenantSlug", "email", "password", "userName"],
            "properties": {
                "tenantName": {"type": "string", "maxLength": 100},
                "tenantSlug": {"type": "string", "minLength": 3, "maxLength": 50},
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8, "maxLength": 72},
                "userName": {"type": "string", "maxLength": 100}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Identity Gateway API",
	Description:      "Multi-tenant registration, login and tenant-scoped user lookups.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
