package registration

import (
	"ekyc-backend/pkg/response"
	"net/http"
)

var (
	ErrNoDocumentImage        = response.NewError(http.StatusBadRequest, "no document image supplied")
	ErrNoFaceImage            = response.NewError(http.StatusBadRequest, "no face image supplied")
	ErrInvalidDocumentType    = response.NewError(http.StatusBadRequest, "invalid document type")
	ErrDocumentUndecodable    = response.NewError(http.StatusBadRequest, "document image could not be decoded")
	ErrFaceImageUndecodable   = response.NewError(http.StatusBadRequest, "face image could not be decoded")
	ErrDocumentRegionNotFound = response.NewError(http.StatusUnprocessableEntity, "document region not found")
	ErrFaceNotFound           = response.NewError(http.StatusUnprocessableEntity, "no face found on document")
	ErrFaceVerificationFailed = response.NewError(http.StatusUnprocessableEntity, "face verification failed")
	ErrTextExtractionFailed   = response.NewError(http.StatusUnprocessableEntity, "text could not be extracted from document")
	ErrIDFieldMissing         = response.NewError(http.StatusUnprocessableEntity, "document ID could not be read")
	ErrEmbeddingFailed        = response.NewError(http.StatusUnprocessableEntity, "face embedding could not be computed")
	ErrDuplicateIdentity      = response.NewError(http.StatusConflict, "identity already registered")
	ErrInternalServerError    = response.NewError(http.StatusInternalServerError, "internal server error")
)
