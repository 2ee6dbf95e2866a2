package payment

// Status is the closed set of payment outcome kinds the reconciler
// understands. Providers report a wider vocabulary; adapters normalize into
// this set and keep the verbatim provider string in Outcome.ProviderStatus.
type Status string

const (
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
	StatusPending        Status = "pending"
	StatusOnHold         Status = "on-hold"
	StatusRequiresAction Status = "requires_action"
)

// Outcome is the ephemeral result of a payment attempt. It is consumed by
// the reconciler immediately after the attempt and never persisted.
type Outcome struct {
	Status         Status
	ProviderStatus string // verbatim provider status, when it differs from Status
	TransactionID  string
	RedirectURL    string // continuation URL for customer-action flows
}

// StatusString returns the status to report to callers: the verbatim
// provider status when one was carried through, the normalized kind
// otherwise.
func (o Outcome) StatusString() string {
	if o.ProviderStatus != "" {
		return o.ProviderStatus
	}
	return string(o.Status)
}

// Pending is the default outcome for skipped or unrecognized payment
// attempts.
func Pending() Outcome {
	return Outcome{Status: StatusPending}
}

// Failed is the outcome for any attempt that errored before or during the
// provider call.
func Failed() Outcome {
	return Outcome{Status: StatusFailed}
}
