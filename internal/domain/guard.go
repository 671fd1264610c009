package domain

// GuardResult is the outcome of a pre-flight check (rate limit, OTP attempt
// cap) before a request reaches a service.
type GuardResult struct {
	Allowed bool
	Reason  string
	Guard   string
}
