package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestNotifier(t *testing.T, handler http.HandlerFunc) (*Notifier, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewNotifier(Config{
		AccountSID: "ACtest",
		AuthToken:  "secret",
		FromText:   "+14155238886",
		FromCall:   "+14155551234",
		BaseURL:    srv.URL,
	}, nil), srv
}

func TestSendTextPostsWhatsAppForm(t *testing.T) {
	n, _ := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2010-04-01/Accounts/ACtest/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "ACtest", user)
		require.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "whatsapp:+14155238886", r.PostForm.Get("From"))
		require.Equal(t, "whatsapp:+919907401925", r.PostForm.Get("To"))
		require.Equal(t, "EMERGENCY ALERT", r.PostForm.Get("Body"))
		_, _ = w.Write([]byte(`{"sid":"SM123"}`))
	})

	status := n.SendText(context.Background(), "EMERGENCY ALERT", "+919907401925")
	require.Equal(t, "Sent (SM123)", status)
}

func TestPlaceCallBuildsTwiML(t *testing.T) {
	n, _ := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2010-04-01/Accounts/ACtest/Calls.json", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "+14155551234", r.PostForm.Get("From"))
		require.Equal(t, "+919907401925", r.PostForm.Get("To"))
		twiml := r.PostForm.Get("Twiml")
		require.Contains(t, twiml, `<Say voice="alice">`)
		require.Contains(t, twiml, "Sit upright &amp; stay calm")
		_, _ = w.Write([]byte(`{"sid":"CA456"}`))
	})

	status := n.PlaceCall(context.Background(), "Sit upright & stay calm", "+919907401925")
	require.Equal(t, "Calling (CA456)", status)
}

func TestDispatchFailureBecomesStatusText(t *testing.T) {
	n, _ := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":20003,"message":"Authenticate"}`, http.StatusUnauthorized)
	})

	status := n.SendText(context.Background(), "body", "+911234567890")
	require.Contains(t, status, "Failed:")
	require.Contains(t, status, "status=401")
}

func TestNoopNotifierSkips(t *testing.T) {
	n := NewNoopNotifier(nil)

	require.Equal(t, "Skipped", n.SendText(context.Background(), "body", "+911234567890"))
	require.Equal(t, "Skipped", n.PlaceCall(context.Background(), "script", "+911234567890"))
}
