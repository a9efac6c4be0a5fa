package registrationRepository

import (
	"context"
	"database/sql"
	"errors"

	"ekyc-backend/internal/api/registration"
	"ekyc-backend/internal/entity"
	contextPkg "ekyc-backend/pkg/context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type identityRecordDB struct {
	ID         sql.NullString  `db:"id"`
	IDDigest   sql.NullString  `db:"id_digest"`
	Name       sql.NullString  `db:"name"`
	FatherName sql.NullString  `db:"father_name"`
	Gender     sql.NullString  `db:"gender"`
	DOB        sql.NullString  `db:"dob"`
	Embedding  pq.Float64Array `db:"embedding"`
	CreatedAt  sql.NullTime    `db:"created_at"`
}

func (row identityRecordDB) toEntity(documentType entity.DocumentType) entity.IdentityRecord {
	return entity.IdentityRecord{
		ID:           row.ID.String,
		DocumentType: documentType,
		IDDigest:     row.IDDigest.String,
		Name:         row.Name.String,
		FatherName:   row.FatherName.String,
		Gender:       row.Gender.String,
		DOB:          row.DOB.String,
		Embedding:    row.Embedding,
		CreatedAt:    row.CreatedAt.Time,
	}
}

func (r *identityRepository) Fetch(c context.Context, record entity.IdentityRecord) ([]entity.IdentityRecord, error) {
	requestID := contextPkg.GetRequestID(c)

	fetchQuery := queryFetchPANByDigest
	if record.DocumentType == entity.DocumentTypeAadhar {
		fetchQuery = queryFetchAadharByDigest
	}

	argsKV := map[string]interface{}{
		"id_digest": record.IDDigest,
	}

	query, args, err := sqlx.Named(fetchQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for Fetch")
		return nil, err
	}
	query = r.q.Rebind(query)

	rows, err := r.q.QueryxContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when fetching identity records")
		return nil, err
	}
	defer rows.Close()

	var records []entity.IdentityRecord
	for rows.Next() {
		var row identityRecordDB
		if err := rows.StructScan(&row); err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("Failed to scan identity record row")
			return nil, err
		}
		records = append(records, row.toEntity(record.DocumentType))
	}

	return records, rows.Err()
}

func (r *identityRepository) Exists(c context.Context, record entity.IdentityRecord) (bool, error) {
	requestID := contextPkg.GetRequestID(c)

	existsQuery := queryExistsPAN
	argsKV := map[string]interface{}{
		"id_digest": record.IDDigest,
	}

	if record.DocumentType == entity.DocumentTypeAadhar {
		existsQuery = queryExistsAadhar
		argsKV["name"] = record.Name
		argsKV["dob"] = record.DOB
	}

	query, args, err := sqlx.Named(existsQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for Exists")
		return false, err
	}
	query = r.q.Rebind(query)

	var found bool
	if err := r.q.QueryRowxContext(c, query, args...).Scan(&found); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when checking for duplicate identity")
		return false, err
	}

	return found, nil
}

func (r *identityRepository) Insert(c context.Context, record entity.IdentityRecord) error {
	requestID := contextPkg.GetRequestID(c)

	insertQuery := queryInsertPANRecord
	argsKV := map[string]interface{}{
		"id":          record.ID,
		"id_digest":   record.IDDigest,
		"name":        record.Name,
		"father_name": record.FatherName,
		"dob":         record.DOB,
		"embedding":   pq.Array(record.Embedding),
		"created_at":  record.CreatedAt,
	}

	if record.DocumentType == entity.DocumentTypeAadhar {
		insertQuery = queryInsertAadharRecord
		delete(argsKV, "father_name")
		argsKV["gender"] = record.Gender
	}

	query, args, err := sqlx.Named(insertQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for Insert")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Unique constraint rejected concurrent duplicate insert")
			return registration.ErrDuplicateIdentity
		}

		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when inserting identity record")
		return err
	}

	return nil
}

func (r *identityRepository) List(c context.Context, documentType entity.DocumentType, limit int) ([]entity.IdentityRecord, error) {
	requestID := contextPkg.GetRequestID(c)

	listQuery := queryListPAN
	if documentType == entity.DocumentTypeAadhar {
		listQuery = queryListAadhar
	}

	if limit <= 0 {
		limit = 50
	}

	query, args, err := sqlx.Named(listQuery, map[string]interface{}{"limit": limit})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for List")
		return nil, err
	}
	query = r.q.Rebind(query)

	rows, err := r.q.QueryxContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when listing identity records")
		return nil, err
	}
	defer rows.Close()

	var records []entity.IdentityRecord
	for rows.Next() {
		var row identityRecordDB
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		records = append(records, row.toEntity(documentType))
	}

	return records, rows.Err()
}
