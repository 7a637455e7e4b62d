package authcore

import "github.com/MrEthical07/authcore/internal/metrics"

// MetricID identifies one engine counter or latency histogram.
type MetricID = metrics.MetricID

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot = metrics.Snapshot

const (
	MetricRegisterSuccess         = metrics.MetricRegisterSuccess
	MetricRegisterDuplicate       = metrics.MetricRegisterDuplicate
	MetricLoginSuccess            = metrics.MetricLoginSuccess
	MetricLoginFailure            = metrics.MetricLoginFailure
	MetricLoginRateLimited        = metrics.MetricLoginRateLimited
	MetricSecondFactorRequired    = metrics.MetricSecondFactorRequired
	MetricSecondFactorSuccess     = metrics.MetricSecondFactorSuccess
	MetricSecondFactorFailure     = metrics.MetricSecondFactorFailure
	MetricSecondFactorReplay      = metrics.MetricSecondFactorReplay
	MetricSecondFactorRateLimited = metrics.MetricSecondFactorRateLimited
	MetricDeliveryFailure         = metrics.MetricDeliveryFailure
	MetricTokenIssued             = metrics.MetricTokenIssued
	MetricTokenVerified           = metrics.MetricTokenVerified
	MetricTokenRejected           = metrics.MetricTokenRejected
	MetricRevokedTokenRejected    = metrics.MetricRevokedTokenRejected
	MetricLogout                  = metrics.MetricLogout
	MetricBackendFailure          = metrics.MetricBackendFailure
	MetricLoginLatency            = metrics.MetricLoginLatency
	MetricVerifyLatency           = metrics.MetricVerifyLatency
)
