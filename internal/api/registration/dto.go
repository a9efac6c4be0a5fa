package registration

import (
	"ekyc-backend/internal/entity"
	"time"
)

// Field names shared by both document schemas. PAN cards carry ID, Name,
// FatherName and DOB; Aadhar cards carry ID, Name, Gender and DOB.
const (
	FieldID         = "ID"
	FieldName       = "Name"
	FieldFatherName = "FatherName"
	FieldGender     = "Gender"
	FieldDOB        = "DOB"
)

// IdentityFields maps field names to the values parsed from OCR output.
type IdentityFields map[string]string

type RegisterRequest struct {
	DocumentType  entity.DocumentType
	DocumentImage []byte
	FaceImage     []byte
}

// RegisteredIdentity is the externally visible shape of a stored record. The
// biometric embedding is deliberately absent.
type RegisteredIdentity struct {
	ID           string              `json:"id"`
	DocumentType entity.DocumentType `json:"document_type"`
	IDDigest     string              `json:"id_digest"`
	Name         string              `json:"name,omitempty"`
	FatherName   string              `json:"father_name,omitempty"`
	Gender       string              `json:"gender,omitempty"`
	DOB          string              `json:"dob,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`

	// Presigned download links for the archived crops, present only when
	// object storage is configured.
	DocumentImageURL string `json:"document_image_url,omitempty"`
	FaceImageURL     string `json:"face_image_url,omitempty"`
}

type RegisterResponse struct {
	Status       string             `json:"status"`
	PriorMatches int                `json:"prior_matches"`
	Data         RegisteredIdentity `json:"data"`
}

type ListRegistrationsResponse struct {
	Data []RegisteredIdentity `json:"data"`
}
