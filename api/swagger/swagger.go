package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Kidario API",
        "description": "Tutoring marketplace backend: profiles, availability, bookings and the public teacher marketplace.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Profiles", "description": "Parent and teacher profile management"},
        {"name": "Bookings", "description": "Booking lifecycle and agendas"},
        {"name": "Availability", "description": "Bookable slot listing"},
        {"name": "Marketplace", "description": "Public teacher marketplace"},
        {"name": "Admin", "description": "Platform administration"}
    ],
    "paths": {
        "/profiles/me": {
            "get": {
                "tags": ["Profiles"],
                "summary": "Current user's profile with extension flags",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Profile does not exist yet", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/profiles/parent": {
            "patch": {
                "tags": ["Profiles"],
                "summary": "Patch the parent profile and its children",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ParentProfilePatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Role mismatch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/profiles/teacher": {
            "patch": {
                "tags": ["Profiles"],
                "summary": "Patch the teacher profile and its collections",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TeacherProfilePatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Role mismatch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Create a booking",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookingCreateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot no longer available", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/parent/agenda": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Parent agenda",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "tab", "in": "query", "type": "string", "enum": ["upcoming", "past"]},
                    {"name": "child_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/teacher/agenda": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Teacher agenda",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "tab", "in": "query", "type": "string", "enum": ["upcoming", "past"]},
                    {"name": "status", "in": "query", "type": "string", "enum": ["pendente", "confirmada", "cancelada", "concluida"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{id}": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Booking detail",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "No access to booking", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Booking not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{id}/reschedule": {
            "patch": {
                "tags": ["Bookings"],
                "summary": "Reschedule a booking",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookingReschedulePatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot conflict or invalid status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{id}/cancel": {
            "patch": {
                "tags": ["Bookings"],
                "summary": "Cancel a booking",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookingCancelPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{id}/complete": {
            "patch": {
                "tags": ["Bookings"],
                "summary": "Complete a booking with a follow-up note",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookingCompletePatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/availability/slots": {
            "get": {
                "tags": ["Availability"],
                "summary": "Bookable slots for a teacher within a date range",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "required": true, "type": "string"},
                    {"name": "to", "in": "query", "required": true, "type": "string"},
                    {"name": "duration_minutes", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/marketplace/teachers": {
            "get": {
                "tags": ["Marketplace"],
                "summary": "List active teachers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/marketplace/teachers/{id}": {
            "get": {
                "tags": ["Marketplace"],
                "summary": "Public detail of an active teacher",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Teacher not found in marketplace", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/teachers/{id}/activation": {
            "patch": {
                "tags": ["Admin"],
                "summary": "Toggle a teacher's marketplace visibility",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TeacherActivationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admin access required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Teacher profile not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ParentProfilePatch": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "phone": {"type": "string"},
                "birth_date": {"type": "string"},
                "address": {"type": "string"},
                "bio": {"type": "string"},
                "children_ops": {"$ref": "#/definitions/ChildrenOps"}
            }
        },
        "ChildrenOps": {
            "type": "object",
            "properties": {
                "upsert": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ChildUpsert"}
                },
                "delete_ids": {
                    "type": "array",
                    "items": {"type": "string"}
                }
            }
        },
        "ChildUpsert": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "gender": {"type": "string"},
                "age": {"type": "integer"},
                "current_grade": {"type": "string"},
                "birth_month_year": {"type": "string"},
                "school": {"type": "string"},
                "focus_points": {"type": "string"}
            },
            "required": ["name"]
        },
        "TeacherProfilePatch": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "phone": {"type": "string"},
                "cpf": {"type": "string"},
                "professional_registration": {"type": "string"},
                "city": {"type": "string"},
                "state": {"type": "string"},
                "modality": {"type": "string", "enum": ["online", "presencial", "hibrido"]},
                "mini_bio": {"type": "string"},
                "hourly_rate": {"type": "number"},
                "lesson_duration_minutes": {"type": "integer"},
                "profile_photo_file_name": {"type": "string"},
                "request_experience_anonymity": {"type": "boolean"},
                "specialties_ops": {"type": "object"},
                "formations_ops": {"type": "object"},
                "experiences_ops": {"type": "object"},
                "availability_ops": {"type": "object"}
            }
        },
        "BookingCreateRequest": {
            "type": "object",
            "properties": {
                "parent_profile_id": {"type": "string"},
                "child_id": {"type": "string"},
                "teacher_profile_id": {"type": "string"},
                "date_iso": {"type": "string"},
                "time": {"type": "string"},
                "duration_minutes": {"type": "integer"},
                "modality": {"type": "string", "enum": ["online", "presencial"]},
                "payment_method": {"type": "string", "enum": ["cartao", "pix"]},
                "coupon_code": {"type": "string"}
            },
            "required": ["teacher_profile_id", "date_iso", "time", "duration_minutes", "modality", "payment_method"]
        },
        "BookingReschedulePatch": {
            "type": "object",
            "properties": {
                "new_date_iso": {"type": "string"},
                "new_time": {"type": "string"},
                "reason": {"type": "string"}
            },
            "required": ["new_date_iso", "new_time"]
        },
        "BookingCancelPatch": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            },
            "required": ["reason"]
        },
        "BookingCompletePatch": {
            "type": "object",
            "properties": {
                "follow_up": {"$ref": "#/definitions/BookingFollowUpPayload"}
            },
            "required": ["follow_up"]
        },
        "BookingFollowUpPayload": {
            "type": "object",
            "properties": {
                "summary": {"type": "string"},
                "next_steps": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "attention_points": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["summary", "next_steps"]
        },
        "TeacherActivationRequest": {
            "type": "object",
            "properties": {
                "is_active_teacher": {"type": "boolean"}
            },
            "required": ["is_active_teacher"]
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
