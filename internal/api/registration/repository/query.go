package registrationRepository

const (
	queryInsertPANRecord = `
INSERT INTO pan_records (id, id_digest, name, father_name, dob, embedding, created_at)
VALUES (:id, :id_digest, :name, :father_name, :dob, :embedding, :created_at)`

	queryInsertAadharRecord = `
INSERT INTO aadhar_records (id, id_digest, name, gender, dob, embedding, created_at)
VALUES (:id, :id_digest, :name, :gender, :dob, :embedding, :created_at)`

	queryFetchPANByDigest = `
SELECT id, id_digest, name, father_name, dob, created_at
FROM pan_records
    WHERE id_digest = :id_digest`

	queryFetchAadharByDigest = `
SELECT id, id_digest, name, gender, dob, created_at
FROM aadhar_records
    WHERE id_digest = :id_digest`

	queryExistsPAN = `
SELECT EXISTS (
    SELECT 1 FROM pan_records WHERE id_digest = :id_digest
) AS found`

	queryExistsAadhar = `
SELECT EXISTS (
    SELECT 1 FROM aadhar_records
    WHERE id_digest = :id_digest AND name = :name AND dob = :dob
) AS found`

	queryListPAN = `
SELECT id, id_digest, name, father_name, dob, created_at
FROM pan_records
ORDER BY created_at DESC
LIMIT :limit`

	queryListAadhar = `
SELECT id, id_digest, name, gender, dob, created_at
FROM aadhar_records
ORDER BY created_at DESC
LIMIT :limit`
)
