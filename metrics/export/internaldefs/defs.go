package internaldefs

import "github.com/MrEthical07/authcore/internal/metrics"

// Def names one engine metric for every exporter. Name is the Prometheus
// name; OTelName is the dotted OpenTelemetry instrument name.
type Def struct {
	ID       metrics.MetricID
	Name     string
	OTelName string
	Help     string
}

// Counters lists every exported counter in render order.
var Counters = []Def{
	{metrics.MetricRegisterSuccess, "authcore_register_success_total", "authcore.register.success", "Accounts created."},
	{metrics.MetricRegisterDuplicate, "authcore_register_duplicate_total", "authcore.register.duplicate", "Registrations rejected because the email is taken."},
	{metrics.MetricLoginSuccess, "authcore_login_success_total", "authcore.login.success", "Logins completed without a second factor."},
	{metrics.MetricLoginFailure, "authcore_login_failure_total", "authcore.login.failure", "Logins rejected for unknown email or wrong secret."},
	{metrics.MetricLoginRateLimited, "authcore_login_rate_limited_total", "authcore.login.rate_limited", "Logins rejected by the attempt budget."},
	{metrics.MetricSecondFactorRequired, "authcore_second_factor_required_total", "authcore.second_factor.required", "Codes issued and delivered."},
	{metrics.MetricSecondFactorSuccess, "authcore_second_factor_success_total", "authcore.second_factor.success", "Second factor confirmations that issued a token."},
	{metrics.MetricSecondFactorFailure, "authcore_second_factor_failure_total", "authcore.second_factor.failure", "Wrong or unknown second factor confirmations."},
	{metrics.MetricSecondFactorReplay, "authcore_second_factor_replay_total", "authcore.second_factor.replay", "Confirmations that lost the race to consume an attempt."},
	{metrics.MetricSecondFactorRateLimited, "authcore_second_factor_rate_limited_total", "authcore.second_factor.rate_limited", "Confirmations rejected by the code attempt budget."},
	{metrics.MetricDeliveryFailure, "authcore_delivery_failure_total", "authcore.delivery.failure", "Codes the mail sender could not deliver."},
	{metrics.MetricTokenIssued, "authcore_token_issued_total", "authcore.token.issued", "Session tokens signed."},
	{metrics.MetricTokenVerified, "authcore_token_verified_total", "authcore.token.verified", "Session tokens accepted."},
	{metrics.MetricTokenRejected, "authcore_token_rejected_total", "authcore.token.rejected", "Session tokens rejected as malformed, forged or expired."},
	{metrics.MetricRevokedTokenRejected, "authcore_token_revoked_rejected_total", "authcore.token.revoked_rejected", "Session tokens rejected because they were revoked."},
	{metrics.MetricLogout, "authcore_logout_total", "authcore.logout", "Tokens revoked by logout."},
	{metrics.MetricBackendFailure, "authcore_backend_failure_total", "authcore.backend.failure", "Store, limiter or signer failures."},
}

// Histograms lists every exported latency histogram.
var Histograms = []Def{
	{metrics.MetricLoginLatency, "authcore_login_latency_seconds", "authcore.login.latency", "Credential lookup and verification latency."},
	{metrics.MetricVerifyLatency, "authcore_verify_latency_seconds", "authcore.verify.latency", "Token verification latency."},
}

// AuditDropped describes the dropped audit events counter, which is read
// from the engine rather than the snapshot.
var AuditDropped = Def{
	Name:     "authcore_audit_dropped_total",
	OTelName: "authcore.audit.dropped",
	Help:     "Audit events dropped by dispatcher backpressure.",
}

// Bounds are the upper bounds of the histogram buckets in seconds, matching
// the internal millisecond buckets.
var Bounds = [metrics.HistogramBucketCount]string{
	"0.005", "0.01", "0.025", "0.05", "0.1", "0.25", "0.5", "+Inf",
}

// Cumulative converts raw per-bucket counts into the running totals both
// exposition formats expect. Missing buckets count as zero.
func Cumulative(raw []uint64) [metrics.HistogramBucketCount]uint64 {
	var out [metrics.HistogramBucketCount]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
