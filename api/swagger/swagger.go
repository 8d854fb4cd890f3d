package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Practicas Profesionales API",
        "description": "Gestion de practicas profesionales: bitacoras, documentos, evaluaciones y nota final",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication and session management"},
        {"name": "Practices", "description": "Practice lifecycle and supervision"},
        {"name": "WeeklyLogs", "description": "Weekly activity logs (bitacoras)"},
        {"name": "Documents", "description": "Practice document uploads and review"},
        {"name": "Evaluations", "description": "Document grading"},
        {"name": "FinalGrades", "description": "Final grade calculation pipeline"},
        {"name": "Reports", "description": "Asynchronous report exports"},
        {"name": "Metrics", "description": "Observability"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and issue tokens",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate the refresh token",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid refresh token"}
                }
            }
        },
        "/practicas": {
            "get": {
                "tags": ["Practices"],
                "summary": "List practices with filters",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Practices"],
                "summary": "Register a new practice",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Student already has an open practice"}
                }
            }
        },
        "/practicas/{id}/estado": {
            "patch": {
                "tags": ["Practices"],
                "summary": "Transition the practice state",
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Invalid state transition"}
                }
            }
        },
        "/bitacoras": {
            "post": {
                "tags": ["WeeklyLogs"],
                "summary": "Submit a weekly log",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Content validation failed"}
                }
            }
        },
        "/bitacoras/{id}/revision": {
            "patch": {
                "tags": ["WeeklyLogs"],
                "summary": "Review a weekly log",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/documentos": {
            "post": {
                "tags": ["Documents"],
                "summary": "Upload a practice document",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Document of this type already uploaded"}
                }
            }
        },
        "/evaluaciones": {
            "post": {
                "tags": ["Evaluations"],
                "summary": "Grade a practice document",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/notas-finales/calcular": {
            "post": {
                "tags": ["FinalGrades"],
                "summary": "Calculate and persist the final grade",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Final grade already exists"},
                    "422": {"description": "Prerequisites not met"}
                }
            }
        },
        "/notas-finales/mia": {
            "get": {
                "tags": ["FinalGrades"],
                "summary": "Get the authenticated student's final grade",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not calculated yet"}
                }
            }
        },
        "/reportes": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a report export",
                "responses": {
                    "202": {"description": "Accepted"}
                }
            }
        },
        "/reportes/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished report",
                "responses": {
                    "200": {"description": "OK"},
                    "410": {"description": "Link expired"}
                }
            }
        },
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
