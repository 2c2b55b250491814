package service

import "errors"

// Settlement failures. Every one of them is raised before the first transfer of a call.
var (
	ErrMalformedRoster       = errors.New("malformed roster")
	ErrIneligibleParticipant = errors.New("ineligible participant")
	ErrIndexOutOfRange       = errors.New("winner index out of range")
	ErrEmptyPool             = errors.New("pool is empty")
	ErrStorageNotFunded      = errors.New("result storage not funded")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrWrongOwner            = errors.New("account has wrong owner")
	ErrInvalidShareTable     = errors.New("invalid share table")
	ErrAlreadySettled        = errors.New("result storage already settled")
	ErrAssetMismatch         = errors.New("asset mismatch")
	ErrInvalidDestination    = errors.New("invalid destination")
	ErrReadOnlyAccount       = errors.New("account not writable")
)

// Ledger and lookup failures.
var (
	ErrNotSettled        = errors.New("result storage not settled")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// ErrorKind maps an error to a short label for metrics and API responses
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMalformedRoster):
		return "malformed_roster"
	case errors.Is(err, ErrIneligibleParticipant):
		return "ineligible_participant"
	case errors.Is(err, ErrIndexOutOfRange):
		return "index_out_of_range"
	case errors.Is(err, ErrEmptyPool):
		return "empty_pool"
	case errors.Is(err, ErrStorageNotFunded):
		return "storage_not_funded"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrWrongOwner):
		return "wrong_owner"
	case errors.Is(err, ErrInvalidShareTable):
		return "invalid_share_table"
	case errors.Is(err, ErrAlreadySettled):
		return "already_settled"
	case errors.Is(err, ErrAssetMismatch):
		return "asset_mismatch"
	case errors.Is(err, ErrInvalidDestination):
		return "invalid_destination"
	case errors.Is(err, ErrReadOnlyAccount):
		return "read_only_account"
	case errors.Is(err, ErrNotSettled):
		return "not_settled"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "internal"
	}
}
