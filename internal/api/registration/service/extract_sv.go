package registrationService

import (
	"regexp"
	"strings"

	"ekyc-backend/internal/api/registration"
	"ekyc-backend/internal/entity"
)

var (
	panIDPattern    = regexp.MustCompile(`\b[A-Z]{5}[0-9]{4}[A-Z]\b`)
	aadharIDPattern = regexp.MustCompile(`\b\d{4}\s?\d{4}\s?\d{4}\b`)
	datePattern     = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{2}[-/]\d{2}[-/]\d{4})\b`)
	genderPattern   = regexp.MustCompile(`(?i)\b(male|female|transgender)\b`)
	namePattern     = regexp.MustCompile(`^[A-Za-z][A-Za-z .']+$`)
)

// fieldExtractor parses raw OCR lines into the field schema of one document
// type. Which variant runs is decided once, at the orchestrator boundary.
type fieldExtractor interface {
	Extract(lines []string) (registration.IdentityFields, error)
}

func extractorFor(documentType entity.DocumentType) (fieldExtractor, error) {
	switch documentType {
	case entity.DocumentTypePAN:
		return panExtractor{}, nil
	case entity.DocumentTypeAadhar:
		return aadharExtractor{}, nil
	default:
		return nil, registration.ErrInvalidDocumentType
	}
}

type panExtractor struct{}

func (panExtractor) Extract(lines []string) (registration.IdentityFields, error) {
	fields := registration.IdentityFields{}

	for idx, line := range lines {
		if fields[registration.FieldID] == "" {
			if m := panIDPattern.FindString(line); m != "" {
				fields[registration.FieldID] = m
				continue
			}
		}

		if fields[registration.FieldDOB] == "" {
			if m := datePattern.FindString(line); m != "" {
				fields[registration.FieldDOB] = m
				continue
			}
		}

		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "father") && fields[registration.FieldFatherName] == "":
			fields[registration.FieldFatherName] = nameAfter(lines, idx)
		case strings.Contains(lower, "name") && fields[registration.FieldName] == "":
			fields[registration.FieldName] = nameAfter(lines, idx)
		}
	}

	if fields[registration.FieldName] == "" {
		fields[registration.FieldName] = firstNameLike(lines)
	}

	if fields[registration.FieldID] == "" {
		return nil, registration.ErrIDFieldMissing
	}

	return fields, nil
}

type aadharExtractor struct{}

func (aadharExtractor) Extract(lines []string) (registration.IdentityFields, error) {
	fields := registration.IdentityFields{}

	for idx, line := range lines {
		if fields[registration.FieldID] == "" {
			if m := aadharIDPattern.FindString(line); m != "" {
				fields[registration.FieldID] = strings.ReplaceAll(m, " ", "")
				continue
			}
		}

		if fields[registration.FieldGender] == "" {
			if m := genderPattern.FindString(line); m != "" {
				fields[registration.FieldGender] = strings.ToUpper(m)
			}
		}

		if fields[registration.FieldDOB] == "" {
			if m := datePattern.FindString(line); m != "" {
				fields[registration.FieldDOB] = m
				// The printed name on an Aadhar card sits directly above the DOB line.
				if fields[registration.FieldName] == "" && idx > 0 && isNameLike(lines[idx-1]) {
					fields[registration.FieldName] = strings.TrimSpace(lines[idx-1])
				}
			}
		}
	}

	if fields[registration.FieldName] == "" {
		fields[registration.FieldName] = firstNameLike(lines)
	}

	if fields[registration.FieldID] == "" {
		return nil, registration.ErrIDFieldMissing
	}

	return fields, nil
}

var labelWords = []string{
	"income", "tax", "department", "government", "india", "aadhaar",
	"name", "father", "birth", "dob", "gender", "male", "female",
	"permanent", "account", "number", "signature", "card",
}

func isNameLike(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !namePattern.MatchString(trimmed) {
		return false
	}

	lower := strings.ToLower(trimmed)
	for _, w := range labelWords {
		if strings.Contains(lower, w) {
			return false
		}
	}

	return true
}

func nameAfter(lines []string, idx int) string {
	for _, line := range lines[idx+1:] {
		if isNameLike(line) {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

func firstNameLike(lines []string) string {
	for _, line := range lines {
		if isNameLike(line) {
			return strings.TrimSpace(line)
		}
	}
	return ""
}
