package domain

import "errors"

// RejectionError is a business-rule or validation failure. The coordinator turns it
// into a "rejected" terminal write carrying Reason; it is never surfaced past the
// pipeline boundary as a failure.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return e.Reason
}

// Reject builds a RejectionError with the given human-readable reason.
func Reject(reason string) error {
	return &RejectionError{Reason: reason}
}

// AsRejection extracts a RejectionError from err, if it is one.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// Reject reasons written to the record's error field. These strings are part of the
// observable contract; the UI renders them verbatim.
const (
	ReasonMissingFromUID       = "Missing fromUid."
	ReasonRecipientCount       = "Recipient count must be 1–20."
	ReasonSubjectRequired      = "Subject required (max 160)."
	ReasonBodyRequired         = "Message body required (max 5000)."
	ReasonSenderNotApproved    = "Sender is not approved."
	ReasonSenderEmailMissing   = "Sender email missing."
	ReasonNoEligibleRecipients = "No valid approved recipients with email."
	ReasonScoutRuleViolation   = "Scout rule violation: must include 0 adults or 2+ adults."
	ReasonAdultRuleViolation   = "Adult rule violation: must include at least 1 adult recipient."
)
