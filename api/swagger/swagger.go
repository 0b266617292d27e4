package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Learning Intelligence API",
        "description": "Course completion predictions, dropout risk tiers and learning insights",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Health", "description": "Liveness, readiness and metrics"},
        {"name": "Predictions", "description": "Batch and single-record completion scoring"},
        {"name": "Insights", "description": "Recorded per-course prediction runs"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/HealthResponse"}}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A run-history dependency is unreachable"}
                }
            }
        },
        "/predict": {
            "post": {
                "tags": ["Predictions"],
                "summary": "Batch completion prediction",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json", "text/csv", "application/pdf"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true, "description": "Learner CSV with student_id, course_id, time_spent_min, score_percent and optional chapter_order"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BatchPredictionResponse"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "Upload too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "415": {"description": "Upload is not a CSV document", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/predict-single": {
            "post": {
                "tags": ["Predictions"],
                "summary": "Single student prediction",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SinglePredictionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SinglePredictionResponse"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/insights/{course_id}": {
            "get": {
                "tags": ["Insights"],
                "summary": "Latest course insights",
                "parameters": [
                    {"name": "course_id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CourseInsights"}}
                }
            }
        },
        "/insights/{course_id}/runs": {
            "get": {
                "tags": ["Insights"],
                "summary": "Recorded prediction runs for a course",
                "parameters": [
                    {"name": "course_id", "in": "path", "type": "string", "required": true},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Run history disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Health"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "version": {"type": "string", "example": "1.0.0"}
            }
        },
        "SinglePredictionRequest": {
            "type": "object",
            "required": ["student_id", "course_id", "time_spent_min", "score_percent"],
            "properties": {
                "student_id": {"type": "string"},
                "course_id": {"type": "string"},
                "time_spent_min": {"type": "number"},
                "score_percent": {"type": "number"},
                "chapter_order": {"type": "integer", "default": 1}
            }
        },
        "Prediction": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "completion_probability": {"type": "number"},
                "risk_level": {"type": "string", "enum": ["LOW", "MEDIUM", "HIGH"]},
                "predicted_completion": {"type": "integer", "enum": [0, 1]},
                "error": {"type": "string"}
            }
        },
        "Insights": {
            "type": "object",
            "properties": {
                "high_risk_students": {"type": "array", "items": {"type": "string"}},
                "high_risk_count": {"type": "integer"},
                "total_students": {"type": "integer"},
                "key_completion_factors": {"type": "array", "items": {"type": "string"}},
                "difficult_chapters": {"type": "array", "items": {"type": "integer"}},
                "average_completion_probability": {"type": "number", "x-nullable": true},
                "recommendations": {"type": "string"}
            }
        },
        "BatchPredictionResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "predictions": {"type": "array", "items": {"$ref": "#/definitions/Prediction"}},
                "insights": {"$ref": "#/definitions/Insights"}
            }
        },
        "SinglePredictionResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "prediction": {"$ref": "#/definitions/Prediction"}
            }
        },
        "PredictionRun": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "course_id": {"type": "string"},
                "total_students": {"type": "integer"},
                "high_risk_count": {"type": "integer"},
                "high_risk_students": {"type": "array", "items": {"type": "string"}},
                "average_completion_probability": {"type": "number", "x-nullable": true},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "CourseInsights": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string"},
                "message": {"type": "string"},
                "latest": {"$ref": "#/definitions/PredictionRun"}
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
                "status": {"type": "string"},
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
