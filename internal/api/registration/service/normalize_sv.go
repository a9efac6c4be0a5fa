package registrationService

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"ekyc-backend/internal/api/registration"
	"ekyc-backend/internal/entity"
)

// dobLayouts is the fixed ordered list of accepted printed date forms. A
// value matching none of them is kept as-is.
var dobLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006"}

const canonicalDOBLayout = "2006-01-02"

// digestID returns the SHA-256 hex digest of the raw document ID. The digest
// is what gets stored and compared; the raw ID never leaves the pipeline.
func digestID(rawID string) string {
	sum := sha256.Sum256([]byte(rawID))
	return hex.EncodeToString(sum[:])
}

func normalizeDOB(value string) string {
	for _, layout := range dobLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(canonicalDOBLayout)
		}
	}
	return value
}

// normalizeIdentity turns parsed fields into a storage-ready record: the raw
// ID is replaced by its digest and DOB is canonicalized, both before the
// duplicate check so the check runs on the stored representation. The
// embedding is attached separately, after the duplicate check passes.
func normalizeIdentity(documentType entity.DocumentType, fields registration.IdentityFields) entity.IdentityRecord {
	return entity.IdentityRecord{
		DocumentType: documentType,
		IDDigest:     digestID(fields[registration.FieldID]),
		Name:         fields[registration.FieldName],
		FatherName:   fields[registration.FieldFatherName],
		Gender:       fields[registration.FieldGender],
		DOB:          normalizeDOB(fields[registration.FieldDOB]),
	}
}

func toRegisteredIdentity(record entity.IdentityRecord) registration.RegisteredIdentity {
	return registration.RegisteredIdentity{
		ID:           record.ID,
		DocumentType: record.DocumentType,
		IDDigest:     record.IDDigest,
		Name:         record.Name,
		FatherName:   record.FatherName,
		Gender:       record.Gender,
		DOB:          record.DOB,
		CreatedAt:    record.CreatedAt,
	}
}
