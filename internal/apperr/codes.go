package apperr

// Code — машиночитаемый код доменной ошибки.
type Code string

const (
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeInvalidSlotState  Code = "INVALID_SLOT_STATE"
	CodeNotOwner          Code = "NOT_OWNER"
	CodeForbidden         Code = "FORBIDDEN"
	CodeSelfSwap          Code = "SELF_SWAP"
	CodeRequestNotPending Code = "REQUEST_NOT_PENDING"
	CodeSlotLocked        Code = "SLOT_LOCKED"
	CodeNotFound          Code = "NOT_FOUND"
	CodeAlreadyExists     Code = "ALREADY_EXISTS"
	CodeUnauthenticated   Code = "UNAUTHENTICATED"
	CodeInternal          Code = "INTERNAL"
)
