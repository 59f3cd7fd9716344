package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	otpIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_otp_issued_total",
			Help: "Total admin login codes issued",
		},
	)

	otpVerifyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_otp_verify_total",
			Help: "Total admin login code verifications by result",
		},
		[]string{"result"},
	)

	mailSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_mail_sent_total",
			Help: "Total outbound emails by kind and result",
		},
		[]string{"kind", "result"},
	)
)

func mailResult(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
