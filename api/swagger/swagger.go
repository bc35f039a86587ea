package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "MarkBook API",
        "description": "Legacy MarkBook class import, mark set calculations and report exports.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "MarkSets", "description": "Summaries, analytics and grid edits"},
        {"name": "Exports", "description": "CSV and PDF mark set reports"},
        {"name": "LegacyImports", "description": "Legacy class folder imports"}
    ],
    "paths": {
        "/classes/{classId}/marksets/{markSetId}/summary": {
            "get": {
                "tags": ["MarkSets"],
                "summary": "Mark set summary",
                "parameters": [
                    {"$ref": "#/parameters/classId"},
                    {"$ref": "#/parameters/markSetId"},
                    {"$ref": "#/parameters/term"},
                    {"$ref": "#/parameters/categories"},
                    {"$ref": "#/parameters/types"},
                    {"$ref": "#/parameters/studentScope"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad filters", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{classId}/marksets/{markSetId}/assessment-stats": {
            "get": {
                "tags": ["MarkSets"],
                "summary": "Mark set assessment statistics",
                "parameters": [
                    {"$ref": "#/parameters/classId"},
                    {"$ref": "#/parameters/markSetId"},
                    {"$ref": "#/parameters/term"},
                    {"$ref": "#/parameters/categories"},
                    {"$ref": "#/parameters/types"},
                    {"$ref": "#/parameters/studentScope"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{classId}/marksets/{markSetId}/analytics": {
            "get": {
                "tags": ["MarkSets"],
                "summary": "Mark set analytics",
                "parameters": [
                    {"$ref": "#/parameters/classId"},
                    {"$ref": "#/parameters/markSetId"},
                    {"$ref": "#/parameters/term"},
                    {"$ref": "#/parameters/categories"},
                    {"$ref": "#/parameters/types"},
                    {"$ref": "#/parameters/studentScope"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{classId}/marksets/{markSetId}/assessments/{idx}/scores/{studentId}": {
            "put": {
                "tags": ["MarkSets"],
                "summary": "Edit one grid cell",
                "parameters": [
                    {"$ref": "#/parameters/classId"},
                    {"$ref": "#/parameters/markSetId"},
                    {"name": "idx", "in": "path", "required": true, "type": "integer"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetScoreRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid cell", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{classId}/marksets/{markSetId}/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export a mark set report",
                "parameters": [
                    {"$ref": "#/parameters/classId"},
                    {"$ref": "#/parameters/markSetId"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download an exported report",
                "security": [],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "404": {"description": "Unknown or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/legacy/imports": {
            "post": {
                "tags": ["LegacyImports"],
                "summary": "Import a legacy class folder",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ImportRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Folder or file missing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Malformed legacy file", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/legacy/imports/jobs": {
            "post": {
                "tags": ["LegacyImports"],
                "summary": "Queue a legacy class folder import",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ImportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Queue full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/legacy/imports/jobs/{id}": {
            "get": {
                "tags": ["LegacyImports"],
                "summary": "Legacy import job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "classId": {"name": "classId", "in": "path", "required": true, "type": "string"},
        "markSetId": {"name": "markSetId", "in": "path", "required": true, "type": "string"},
        "term": {"name": "term", "in": "query", "type": "integer", "description": "Term number; omit for all terms. 0 selects term 0."},
        "categories": {"name": "categories", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
        "types": {"name": "types", "in": "query", "type": "integer", "description": "Assessment type bitmask over summative, formative, diagnostic, self, peer"},
        "studentScope": {"name": "studentScope", "in": "query", "type": "string", "enum": ["all", "active", "valid"]}
    },
    "definitions": {
        "ImportRequest": {
            "type": "object",
            "required": ["folder"],
            "properties": {
                "folder": {"type": "string"}
            }
        },
        "SetScoreRequest": {
            "type": "object",
            "required": ["state"],
            "properties": {
                "state": {"type": "string", "enum": ["no_mark", "zero", "scored"]},
                "value": {"type": "number"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "filters": {
                    "type": "object",
                    "properties": {
                        "term": {"type": "integer"},
                        "categories": {"type": "array", "items": {"type": "string"}},
                        "types": {"type": "integer"},
                        "studentScope": {"type": "string"}
                    }
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
