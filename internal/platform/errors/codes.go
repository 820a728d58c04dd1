// Package errors provides coded errors shared by the admission client.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Target errors
	CodeTargetInvalid Code = "TARGET_INVALID"
	CodeInviteInvalid Code = "INVITE_INVALID"

	// Credential errors
	CodeCredentialMissing          Code = "CREDENTIAL_MISSING"
	CodeCredentialMalformed        Code = "CREDENTIAL_MALFORMED"
	CodeCredentialSubjectMissing   Code = "CREDENTIAL_SUBJECT_MISSING"
	CodeCredentialAudienceMismatch Code = "CREDENTIAL_AUDIENCE_MISMATCH"
	CodeCredentialExpired          Code = "CREDENTIAL_EXPIRED"

	// Location errors
	CodeLocationMissing Code = "LOCATION_MISSING"

	// Assignment errors
	CodeAssignmentFetchFailed Code = "ASSIGNMENT_FETCH_FAILED"

	// Storage errors
	CodeStoreCorrupt Code = "STORE_CORRUPT"
)
