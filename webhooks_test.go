package luckygas

import (
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/luckygas/luckygas/config"
	"github.com/stretchr/testify/assert"
)

func TestProcessHTTPDeliversWebhook(t *testing.T) {
	cnf := &config.Configuration{}
	cnf.Notification.Webhook.Url = "http://example.com/webhooks"
	cnf.Notification.Webhook.Headers = map[string]string{"X-Api-Key": "test-key"}
	config.MockConfig(cnf)

	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", "http://example.com/webhooks",
		httpmock.NewStringResponder(200, `{"ok": true}`))

	err := processHTTP(NewWebhook{Event: "delivery.completed", Payload: map[string]string{"delivery_id": "dlv_1"}})
	assert.NoError(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestProcessHTTPNonSuccessStatusIsNotRetried(t *testing.T) {
	cnf := &config.Configuration{}
	cnf.Notification.Webhook.Url = "http://example.com/webhooks"
	config.MockConfig(cnf)

	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", "http://example.com/webhooks",
		httpmock.NewStringResponder(500, `{"ok": false}`))

	// A rejected delivery is logged, not retried.
	err := processHTTP(NewWebhook{Event: "route.updated", Payload: map[string]string{"route_id": "rte_1"}})
	assert.NoError(t, err)
}
