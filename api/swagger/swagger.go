package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SITA-BI Scheduling API",
        "description": "Defense scheduling and advising availability service",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "JadwalSidang", "description": "Defense scheduling and conflict detection"},
        {"name": "Bimbingan", "description": "Advising sessions and availability"},
        {"name": "Ruangan", "description": "Examination rooms"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/jadwal-sidang": {
            "get": {
                "tags": ["JadwalSidang"],
                "summary": "List approved defense registrations awaiting a schedule",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["JadwalSidang"],
                "summary": "Schedule a defense",
                "parameters": [
                    {"name": "X-User-ID", "in": "header", "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Schedule conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/jadwal-sidang/check-conflict": {
            "post": {
                "tags": ["JadwalSidang"],
                "summary": "Dry-run conflict check for a proposed defense slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckConflictRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/jadwal-sidang/for-penguji": {
            "get": {
                "tags": ["JadwalSidang"],
                "summary": "List defenses assigned to the requesting examiner",
                "parameters": [
                    {"name": "X-Dosen-ID", "in": "header", "required": true, "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/jadwal-sidang/for-mahasiswa": {
            "get": {
                "tags": ["JadwalSidang"],
                "summary": "List the requesting student's defenses",
                "parameters": [
                    {"name": "X-Mahasiswa-ID", "in": "header", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/jadwal-sidang/export": {
            "get": {
                "tags": ["JadwalSidang"],
                "summary": "Export a day's defense timetable",
                "parameters": [
                    {"name": "tanggal", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/ruangan": {
            "get": {
                "tags": ["Ruangan"],
                "summary": "List examination rooms",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bimbingan/available-slots": {
            "get": {
                "tags": ["Bimbingan"],
                "summary": "Suggest free advising slots for a supervisor on a date",
                "parameters": [
                    {"name": "dosenId", "in": "query", "required": true, "type": "integer"},
                    {"name": "tanggal", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bimbingan/conflicts": {
            "get": {
                "tags": ["Bimbingan"],
                "summary": "Check whether an advising slot clashes with existing commitments",
                "parameters": [
                    {"name": "dosenId", "in": "query", "required": true, "type": "integer"},
                    {"name": "tanggal", "in": "query", "required": true, "type": "string"},
                    {"name": "jam", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bimbingan/jadwal": {
            "post": {
                "tags": ["Bimbingan"],
                "summary": "Schedule an advising session",
                "parameters": [
                    {"name": "X-Dosen-ID", "in": "header", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Schedule conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bimbingan/{id}/reschedule": {
            "patch": {
                "tags": ["Bimbingan"],
                "summary": "Propose a new date/time for an advising session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "X-Mahasiswa-ID", "in": "header", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RescheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bimbingan/{id}/cancel": {
            "patch": {
                "tags": ["Bimbingan"],
                "summary": "Cancel an advising session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "X-Dosen-ID", "in": "header", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bimbingan/{id}/selesai": {
            "patch": {
                "tags": ["Bimbingan"],
                "summary": "Mark an advising session as done",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "X-Dosen-ID", "in": "header", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CheckConflictRequest": {
            "type": "object",
            "properties": {
                "sidangId": {"type": "integer"},
                "tanggal": {"type": "string"},
                "waktu_mulai": {"type": "string"},
                "waktu_selesai": {"type": "string"},
                "ruangan_id": {"type": "integer"},
                "pengujiIds": {"type": "array", "items": {"type": "integer"}}
            },
            "required": ["sidangId", "tanggal", "waktu_mulai", "waktu_selesai", "ruangan_id"]
        },
        "CreateScheduleRequest": {
            "type": "object",
            "properties": {
                "pendaftaranSidangId": {"type": "integer"},
                "tanggal": {"type": "string"},
                "waktu_mulai": {"type": "string"},
                "waktu_selesai": {"type": "string"},
                "ruangan_id": {"type": "integer"},
                "pengujiIds": {"type": "array", "items": {"type": "integer"}, "minItems": 2, "maxItems": 4}
            },
            "required": ["pendaftaranSidangId", "tanggal", "waktu_mulai", "waktu_selesai", "ruangan_id", "pengujiIds"]
        },
        "SetScheduleRequest": {
            "type": "object",
            "properties": {
                "tugasAkhirId": {"type": "integer"},
                "tanggal_bimbingan": {"type": "string"},
                "jam_bimbingan": {"type": "string"}
            },
            "required": ["tugasAkhirId", "tanggal_bimbingan", "jam_bimbingan"]
        },
        "RescheduleRequest": {
            "type": "object",
            "properties": {
                "tanggal_bimbingan": {"type": "string"},
                "jam_bimbingan": {"type": "string"},
                "alasan_perubahan": {"type": "string"}
            },
            "required": ["tanggal_bimbingan", "jam_bimbingan", "alasan_perubahan"]
        },
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
