package timer

import (
	"strconv"

	apperrors "focusdeck/internal/infrastructure/errors"
	"focusdeck/internal/types"
)

func errInvalidMode(mode types.Mode) error {
	return apperrors.HandleValidationError("timer.set_mode", "mode", string(mode), "unknown timer mode")
}

func errInvalidDuration(minutes int) error {
	return apperrors.HandleValidationError("timer.update_duration", "minutes", strconv.Itoa(minutes), "duration must be at least one minute")
}
