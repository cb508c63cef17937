package utils

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms/config"
)

func TestSendgridMailer(t *testing.T) {
	var gotAuth, gotPath string
	var payload map[string]interface{}
	status := http.StatusAccepted

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	m := &SendgridMailer{
		key:        "SG.test",
		from:       sgmail.NewEmail("LMS", "noreply@example.com"),
		subjPrefix: "[LMS] ",
		host:       srv.URL,
	}

	require.NoError(t, m.Send(context.Background(), "ana@example.com", "Hello", "<p>hi</p>"))
	assert.Equal(t, "Bearer SG.test", gotAuth)
	assert.Equal(t, sendgridEndpoint, gotPath)
	assert.Equal(t, "[LMS] Hello", payload["subject"])

	status = http.StatusBadRequest
	assert.Error(t, m.Send(context.Background(), "ana@example.com", "Hello", "<p>hi</p>"))
}

func TestNewMailer(t *testing.T) {
	_, ok := NewMailer(&config.Config{}).(ConsoleMailer)
	assert.True(t, ok)

	_, ok = NewMailer(&config.Config{SendgridAPIKey: "SG.x", AppName: "LMS"}).(*SendgridMailer)
	assert.True(t, ok)
}

type failingMailer struct{ calls int32 }

func (f *failingMailer) Send(context.Context, string, string, string) error {
	atomic.AddInt32(&f.calls, 1)
	return assert.AnError
}

func TestTriggersSwallowErrors(t *testing.T) {
	m := &failingMailer{}
	SendCourseApprovedEmail(m, "i@example.com", "Ivan", "Go")
	SendCourseRejectedEmail(m, "i@example.com", "Ivan", "Go", "<script>")
	SendCourseCompletedEmail(m, "s@example.com", "Sam", "Go")
	SendCourseCompletedEmail(m, "", "Nobody", "Go")
	assert.Equal(t, int32(3), atomic.LoadInt32(&m.calls))
}

type countingReconciler struct{ runs int32 }

func (c *countingReconciler) ReconcileAll(context.Context) (int, error) {
	atomic.AddInt32(&c.runs, 1)
	return 2, nil
}

func TestReconcileScheduler(t *testing.T) {
	r := &countingReconciler{}

	c, err := InitializeReconcileScheduler(r, "")
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = InitializeReconcileScheduler(r, "not a spec")
	assert.Error(t, err)

	c, err = InitializeReconcileScheduler(r, "@every 1h")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Len(t, c.Entries(), 1)
	<-c.Stop().Done()

	runReconcile(r, time.Second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&r.runs))
}
