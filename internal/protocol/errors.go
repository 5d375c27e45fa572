package protocol

import (
	"errors"
	"fmt"
)

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Request shape.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrInternal   = "E_INTERNAL"

	// Station checks.
	ErrNotOwner             = "E_NOT_OWNER"
	ErrStationNotFound      = "E_STATION_NOT_FOUND"
	ErrInvalidStationType   = "E_INVALID_STATION_TYPE"
	ErrStationLevelTooLow   = "E_STATION_LEVEL_TOO_LOW"
	ErrCraftingLimitReached = "E_CRAFTING_LIMIT_REACHED"
	ErrInvalidUpgradeTier   = "E_INVALID_UPGRADE_TIER"

	// Craft inputs.
	ErrInvalidRole                   = "E_INVALID_ROLE"
	ErrInvalidBiome                  = "E_INVALID_BIOME"
	ErrMissingRequiredResources      = "E_MISSING_REQUIRED_RESOURCES"
	ErrDuplicateResourceEntry        = "E_DUPLICATE_RESOURCE_ENTRY"
	ErrResourceAmountMismatch        = "E_RESOURCE_AMOUNT_MISMATCH"
	ErrInsufficientResourceOnStation = "E_INSUFFICIENT_RESOURCE_ON_STATION"

	// Equipment.
	ErrItemNotFound            = "E_ITEM_NOT_FOUND"
	ErrInvalidModuleReference  = "E_INVALID_MODULE_REFERENCE"
	ErrInvalidCarrierReference = "E_INVALID_CARRIER_REFERENCE"
	ErrModuleAlreadyInstalled  = "E_MODULE_ALREADY_INSTALLED"
	ErrModuleSlotFull          = "E_MODULE_SLOT_FULL"
	ErrModuleNotInstalled      = "E_MODULE_NOT_INSTALLED"
	ErrStorageFull             = "E_STORAGE_FULL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:               {},
	ErrBadRequest:                    {},
	ErrInternal:                      {},
	ErrNotOwner:                      {},
	ErrStationNotFound:               {},
	ErrInvalidStationType:            {},
	ErrStationLevelTooLow:            {},
	ErrCraftingLimitReached:          {},
	ErrInvalidUpgradeTier:            {},
	ErrInvalidRole:                   {},
	ErrInvalidBiome:                  {},
	ErrMissingRequiredResources:      {},
	ErrDuplicateResourceEntry:        {},
	ErrResourceAmountMismatch:        {},
	ErrInsufficientResourceOnStation: {},
	ErrItemNotFound:                  {},
	ErrInvalidModuleReference:        {},
	ErrInvalidCarrierReference:       {},
	ErrModuleAlreadyInstalled:        {},
	ErrModuleSlotFull:                {},
	ErrModuleNotInstalled:            {},
	ErrStorageFull:                   {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// Error is a rejected operation. Code is one of the E_* constants and is
// surfaced to callers verbatim.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

func Errorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code carried by err, ErrInternal for foreign errors and
// "" for nil.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternal
}

func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
