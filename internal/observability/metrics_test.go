package observability

import (
	"database/sql"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPRequestsTotal(t *testing.T) {
	counter := HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/posts", "200")
	before := testutil.ToFloat64(counter)

	counter.Inc()

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestHTTPRequestDuration(t *testing.T) {
	HTTPRequestDuration.WithLabelValues("POST", "/api/v1/auth/login", "401").Observe(0.1)

	assert.GreaterOrEqual(t, testutil.CollectAndCount(HTTPRequestDuration), 1)
}

func TestSecurityCounters(t *testing.T) {
	tests := []struct {
		name string
		inc  func()
		get  func() float64
	}{
		{
			name: "tokens_issued",
			inc:  func() { ActionTokensIssued.WithLabelValues("activation").Inc() },
			get:  func() float64 { return testutil.ToFloat64(ActionTokensIssued.WithLabelValues("activation")) },
		},
		{
			name: "token_verifications",
			inc:  func() { ActionTokenVerifications.WithLabelValues("password-reset", "invalid").Inc() },
			get: func() float64 {
				return testutil.ToFloat64(ActionTokenVerifications.WithLabelValues("password-reset", "invalid"))
			},
		},
		{
			name: "csrf_failures",
			inc:  func() { CSRFFailures.WithLabelValues("mismatch").Inc() },
			get:  func() float64 { return testutil.ToFloat64(CSRFFailures.WithLabelValues("mismatch")) },
		},
		{
			name: "login_attempts",
			inc:  func() { LoginAttempts.WithLabelValues("success").Inc() },
			get:  func() float64 { return testutil.ToFloat64(LoginAttempts.WithLabelValues("success")) },
		},
		{
			name: "emails_published",
			inc:  func() { EmailsPublished.WithLabelValues("account_activation", "ok").Inc() },
			get: func() float64 {
				return testutil.ToFloat64(EmailsPublished.WithLabelValues("account_activation", "ok"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.get()
			tt.inc()
			assert.Equal(t, before+1, tt.get())
		})
	}
}

func TestRecordDBStats(t *testing.T) {
	RecordDBStats(sql.DBStats{OpenConnections: 7, InUse: 3, Idle: 4})

	assert.Equal(t, float64(7), testutil.ToFloat64(DBConnectionsOpen))
	assert.Equal(t, float64(3), testutil.ToFloat64(DBConnectionsInUse))
	assert.Equal(t, float64(4), testutil.ToFloat64(DBConnectionsIdle))
}
