package scheduling

import "errors"

var (
	// ErrConflict means the slot is no longer free. Expected control flow:
	// the caller picks another slot, the service never retries on its own.
	ErrConflict = errors.New("slot is no longer available")

	// ErrEnvelope means the interval falls outside the doctor's working
	// hours for that weekday.
	ErrEnvelope = errors.New("interval outside doctor working hours")

	// ErrNoEnvelope means the doctor has no working hours configured for
	// the weekday. Callers treat this as "doctor unavailable that day".
	ErrNoEnvelope = errors.New("no working hours configured for weekday")

	// ErrInvalidTransition indicates a lifecycle violation, which is a
	// caller bug and logged at higher severity.
	ErrInvalidTransition = errors.New("invalid appointment status transition")

	// ErrAlreadyTerminal rejects cancelling an appointment that is
	// completed, cancelled or rescheduled.
	ErrAlreadyTerminal = errors.New("appointment is already in a terminal state")

	ErrNotFound             = errors.New("appointment not found")
	ErrDoctorNotFound       = errors.New("doctor not found")
	ErrDoctorInactive       = errors.New("doctor is not active")
	ErrNoDoctorsForSpecialty = errors.New("no active doctors for specialty")
	ErrNoDoctorsFound       = errors.New("no doctors matched the search filter")
	ErrInvalidQuery         = errors.New("search requires a doctor or a specialty")

	// ErrStoreUnavailable is surfaced after the repository's single retry
	// on transient store failures has been exhausted.
	ErrStoreUnavailable = errors.New("backing store unavailable")
)
