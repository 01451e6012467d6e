package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(eventsHandled.WithLabelValues("button_clicked", "panic"))
	ObserveEvent("button_clicked", 20*time.Millisecond, true)
	assert.Equal(t, before+1, testutil.ToFloat64(eventsHandled.WithLabelValues("button_clicked", "panic")))

	before = testutil.ToFloat64(decisions.WithLabelValues("accept", "admin", "error"))
	Decision("accept", "admin", errors.New("grant failed"))
	assert.Equal(t, before+1, testutil.ToFloat64(decisions.WithLabelValues("accept", "admin", "error")))

	before = testutil.ToFloat64(applications.WithLabelValues("moderator", "completed"))
	Application("moderator", "completed")
	assert.Equal(t, before+1, testutil.ToFloat64(applications.WithLabelValues("moderator", "completed")))

	before = testutil.ToFloat64(ticketRequests.WithLabelValues("general_support", "opened"))
	TicketRequest("general_support", "opened")
	assert.Equal(t, before+1, testutil.ToFloat64(ticketRequests.WithLabelValues("general_support", "opened")))
}

func TestHandlerExposesGauges(t *testing.T) {
	RegisterGauges(func() int { return 3 }, func() int { return 1 })
	RegisterGauges(func() int { return 99 }, func() int { return 99 })

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "ticketbot_sessions_open 3")
	assert.Contains(t, body, "ticketbot_applications_running 1")
}
