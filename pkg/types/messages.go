package types

// TestResult is the outcome of the self-verification pass
type TestResult struct {
	Valid        bool   `json:"valid"`
	Pub          string `json:"pub"`          // caller supplied public key (hex)
	PubRecovered string `json:"pubRecovered"` // public key recovered from the signature (hex)
}

// VerificationResult is returned by every protocol builder.
// Result is the serialized inscription exactly as it should be shipped.
type VerificationResult struct {
	Test   TestResult `json:"test"`
	Result string     `json:"result"`
}

// Consistent reports whether both validity signals agree: the curve verified the
// signature and the recovered key equals the caller supplied key.
func (vr *VerificationResult) Consistent() bool {
	return vr != nil && vr.Test.Valid && vr.Test.Pub == vr.Test.PubRecovered
}
