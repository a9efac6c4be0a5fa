package entity

import "time"

type DocumentType string

const (
	DocumentTypePAN    DocumentType = "PAN"
	DocumentTypeAadhar DocumentType = "AADHAR"
)

func (d DocumentType) Valid() bool {
	return d == DocumentTypePAN || d == DocumentTypeAadhar
}

// IdentityRecord is a registered identity after normalization. IDDigest is
// the SHA-256 hex digest of the raw document ID; the raw value is never
// stored. DOB is canonical YYYY-MM-DD where the printed form was recognized.
type IdentityRecord struct {
	ID           string       `db:"id"`
	DocumentType DocumentType `db:"-"`
	IDDigest     string       `db:"id_digest"`
	Name         string       `db:"name"`
	FatherName   string       `db:"father_name"`
	Gender       string       `db:"gender"`
	DOB          string       `db:"dob"`
	Embedding    []float64    `db:"embedding"`
	CreatedAt    time.Time    `db:"created_at"`
}
