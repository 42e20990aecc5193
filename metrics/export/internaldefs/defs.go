package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported session counter.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricInitialize, Name: "gosession_initialize_total", Help: "Session store initializations."},
	{ID: goSession.MetricSignInSuccess, Name: "gosession_sign_in_success_total", Help: "Successful sign-ins."},
	{ID: goSession.MetricSignInFailure, Name: "gosession_sign_in_failure_total", Help: "Failed sign-ins."},
	{ID: goSession.MetricSignInRoleMismatch, Name: "gosession_sign_in_role_mismatch_total", Help: "Sign-ins rejected for a role hint mismatch."},
	{ID: goSession.MetricSignInSuperseded, Name: "gosession_sign_in_superseded_total", Help: "Sign-ins discarded by a concurrent sign-out."},
	{ID: goSession.MetricSignOut, Name: "gosession_sign_out_total", Help: "Sign-outs."},
	{ID: goSession.MetricSessionRestored, Name: "gosession_session_restored_total", Help: "Sessions adopted from provider notifications."},
	{ID: goSession.MetricSessionInvalidated, Name: "gosession_session_invalidated_total", Help: "Sessions torn down by validity checks or restores."},
	{ID: goSession.MetricInconsistentRepaired, Name: "gosession_inconsistent_repaired_total", Help: "Inconsistent provider and token states repaired."},
	{ID: goSession.MetricExpiryEnforced, Name: "gosession_expiry_enforced_total", Help: "Sessions ended by session, user or organization expiry."},
	{ID: goSession.MetricProfileFallback, Name: "gosession_profile_fallback_total", Help: "Placeholder profiles served."},
	{ID: goSession.MetricBridgeDropped, Name: "gosession_bridge_dropped_total", Help: "Provider notifications dropped by the event bridge."},
	{ID: goSession.MetricValidityCheck, Name: "gosession_validity_check_total", Help: "Validity checks run."},
	{ID: goSession.MetricInitTimeout, Name: "gosession_init_timeout_total", Help: "Initializations that timed out reading the provider."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricValidityLatency, Name: "gosession_validity_latency_seconds", Help: "Validity check latency."},
}

// HistogramUpperBounds are the bucket upper bounds in seconds, excluding +Inf.
var HistogramUpperBounds = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 1, 2.5}

// HistogramBoundSuffix names each bucket, +Inf last.
var HistogramBoundSuffix = []string{
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"1",
	"2_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size bucket array, zero-filling.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
