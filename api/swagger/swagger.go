package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "BBSmart Registry API",
        "description": "Student records, batch imports and transcripts for the education centre portal.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Imports", "description": "Batch reconciliation of rosters, grades, activity hours and advisors"},
        {"name": "Records", "description": "Generic document store"},
        {"name": "Students", "description": "Role-filtered student views and transcripts"},
        {"name": "Settings", "description": "School-wide settings and semesters"},
        {"name": "Metrics", "description": "Process metrics"}
    ],
    "paths": {
        "/imports/{kind}": {
            "post": {
                "tags": ["Imports"],
                "summary": "Apply a batch import",
                "parameters": [
                    {"name": "kind", "in": "path", "required": true, "type": "string", "enum": ["STUDENT", "GRADE", "ACTIVITY", "ADVISOR"]},
                    {"name": "dryRun", "in": "query", "type": "boolean"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ImportRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid batch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "Batch too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Record store write failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/records/{resource}": {
            "get": {
                "tags": ["Records"],
                "summary": "List documents of a resource",
                "parameters": [{"$ref": "#/parameters/resource"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown resource", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Records"],
                "summary": "Create or replace one document",
                "parameters": [
                    {"$ref": "#/parameters/resource"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/records/{resource}/batch": {
            "post": {
                "tags": ["Records"],
                "summary": "Create or replace many documents in one write",
                "parameters": [
                    {"$ref": "#/parameters/resource"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "array", "items": {"type": "object"}}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/records/{resource}/{id}": {
            "delete": {
                "tags": ["Records"],
                "summary": "Delete one document",
                "parameters": [
                    {"$ref": "#/parameters/resource"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students visible to the caller",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get a student",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/transcript": {
            "get": {
                "tags": ["Students"],
                "summary": "Transcript and graduation progress",
                "produces": ["application/json", "text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "pdf"]}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "Get settings",
                "security": [],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Update one setting",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSettingRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/settings/semesters": {
            "post": {
                "tags": ["Settings"],
                "summary": "Add a semester",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddSemesterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Semester exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Process metrics summary",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "parameters": {
        "resource": {
            "name": "resource", "in": "path", "required": true, "type": "string",
            "enum": ["students", "subjects", "users", "videos", "reports", "meeting-places", "personnel", "resources", "classrooms", "textbooks", "exam-schedules", "settings"]
        }
    },
    "definitions": {
        "ImportRequest": {
            "type": "object",
            "required": ["records"],
            "properties": {
                "records": {"type": "array", "items": {"type": "object"}},
                "activeSemester": {"type": "string", "example": "1/2567"},
                "redirect": {"type": "boolean"}
            }
        },
        "UpdateSettingRequest": {
            "type": "object",
            "required": ["key", "value"],
            "properties": {
                "key": {"type": "string", "enum": ["schoolName", "logoUrl", "currentSemester", "semesterList"]},
                "value": {}
            }
        },
        "AddSemesterRequest": {
            "type": "object",
            "required": ["semester"],
            "properties": {"semester": {"type": "string", "example": "2/2568"}}
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
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
