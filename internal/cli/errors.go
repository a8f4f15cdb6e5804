package cli

import (
	"errors"

	"github.com/MadhavPujara/CheckInSync/internal/checkin"
)

var (
	// ErrSetupIncomplete indicates credentials have not been entered yet.
	ErrSetupIncomplete = errors.New("setup not complete: run 'checkin setup attendance' and 'checkin setup chat'")

	// ErrCredentialsRejected indicates at least one API refused the stored keys.
	ErrCredentialsRejected = errors.New("credentials rejected")
)

// UserMessage is the text shown for err. Check-in failures are reported
// generically; their cause is in the logs.
func UserMessage(err error) string {
	if errors.Is(err, checkin.ErrCheckInFailed) {
		return checkin.FailureMessage
	}
	return err.Error()
}
