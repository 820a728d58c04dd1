package domain

import "net/http"

// Handshake statuses with fixed meaning in the campaign server contract.
const (
	StatusOK               = http.StatusOK
	StatusUnauthorized     = http.StatusUnauthorized
	StatusQuotaExceeded    = http.StatusPaymentRequired
	StatusLockedOut        = http.StatusForbidden
	StatusOutOfHours       = http.StatusConflict
	StatusSuspended        = http.StatusGone
	StatusAtCapacity       = http.StatusTeapot
	StatusOverCapacity     = 420
	StatusGeoRestricted    = http.StatusUnavailableForLegalReasons
	StatusTransientMinimum = http.StatusInternalServerError
)
