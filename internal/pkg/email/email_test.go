package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/matcharestock/config"
)

type recordingSender struct {
	mu      sync.Mutex
	sent    []*Message
	batches [][]*Message
	err     error
}

func (r *recordingSender) Send(ctx context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

func (r *recordingSender) SendBatch(ctx context.Context, msgs []*Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, msgs)
	return r.err
}

func TestService_RestockMessages(t *testing.T) {
	svc := NewService(&recordingSender{}, "https://matcharestock.com/")

	products := []Product{
		{Name: "Ummon", URL: "https://ippodo-tea.co.jp/ummon"},
		{Name: "Sayaka"},
	}
	msgs, err := svc.RestockMessages("Ippodo", products, []string{"a@example.com", "b@example.com"})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "a@example.com", msgs[0].To)
	assert.Equal(t, "b@example.com", msgs[1].To)
	assert.Equal(t, "🍵 Ippodo is back in stock: 2 products!", msgs[0].Subject)

	body := msgs[0].HTML
	assert.Equal(t, 1, strings.Count(body, "Ummon"))
	assert.Equal(t, 1, strings.Count(body, "Sayaka"))
	assert.Equal(t, 1, strings.Count(body, "Shop now"), "only products with a URL get a link")
	assert.Contains(t, body, "https://matcharestock.com/dashboard")
}

func TestService_RestockMessages_EscapesNames(t *testing.T) {
	svc := NewService(&recordingSender{}, "https://matcharestock.com")

	msgs, err := svc.RestockMessages("Ippodo", []Product{{Name: "<script>x</script>"}}, []string{"a@example.com"})
	require.NoError(t, err)
	assert.NotContains(t, msgs[0].HTML, "<script>")
}

func TestRestockSubject(t *testing.T) {
	assert.Equal(t, "🍵 Horii Shichimeien is back in stock for Uji Mukashi!",
		RestockSubject("Horii Shichimeien", []Product{{Name: "Uji Mukashi"}}))
}

func TestService_SendBrandWelcome(t *testing.T) {
	rec := &recordingSender{}
	svc := NewService(rec, "https://matcharestock.com")

	require.NoError(t, svc.SendBrandWelcome(context.Background(), "a@example.com", "Marukyu Koyamaen"))
	require.Len(t, rec.sent, 1)
	assert.Equal(t, "a@example.com", rec.sent[0].To)
	assert.Contains(t, rec.sent[0].Subject, "Marukyu Koyamaen")
	assert.Contains(t, rec.sent[0].HTML, "Marukyu Koyamaen restock alerts are on")
}

func TestService_SendVerificationAndReset(t *testing.T) {
	rec := &recordingSender{}
	svc := NewService(rec, "https://matcharestock.com")
	ctx := context.Background()

	require.NoError(t, svc.SendVerificationCode(ctx, "a@example.com", "123456"))
	require.NoError(t, svc.SendPasswordReset(ctx, "a@example.com", "https://matcharestock.com/reset?token=abc"))

	require.Len(t, rec.sent, 2)
	assert.Contains(t, rec.sent[0].HTML, "123456")
	assert.Contains(t, rec.sent[1].HTML, "https://matcharestock.com/reset?token=abc")
}

func TestService_PropagatesSendError(t *testing.T) {
	svc := NewService(&recordingSender{err: errors.New("provider down")}, "")
	assert.Error(t, svc.SendBrandWelcome(context.Background(), "a@example.com", "Ippodo"))
}

func TestDelivered(t *testing.T) {
	assert.Equal(t, 5, Delivered(5, nil))
	assert.Equal(t, 0, Delivered(5, errors.New("boom")))
	assert.Equal(t, 3, Delivered(5, &BatchError{Failed: []string{"a", "b"}, Err: errors.New("boom")}))
}

func TestSMTPSender_SendBatch(t *testing.T) {
	s := NewSMTPSender(&config.EmailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587, From: "from@example.com"})

	var delivered []string
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		assert.Equal(t, "smtp.example.com:587", addr)
		assert.Contains(t, string(msg), "Content-Type: text/html; charset=UTF-8")
		if to[0] == "bad@example.com" {
			return errors.New("mailbox unavailable")
		}
		delivered = append(delivered, to[0])
		return nil
	}

	err := s.SendBatch(context.Background(), []*Message{
		{To: "a@example.com", Subject: "s", HTML: "<p>x</p>"},
		{To: "bad@example.com", Subject: "s", HTML: "<p>x</p>"},
		{To: "c@example.com", Subject: "s", HTML: "<p>x</p>"},
	})

	var be *BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, []string{"bad@example.com"}, be.Failed)
	assert.Equal(t, []string{"a@example.com", "c@example.com"}, delivered)
	assert.Equal(t, 2, Delivered(3, err))
}

func newTestResend(t *testing.T, handler http.HandlerFunc) *ResendSender {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := resend.NewClient("re_test")
	u, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = u
	return NewResendSenderWithClient(client, "notifications@updates.matcharestock.com")
}

func TestResendSender_SendBatch(t *testing.T) {
	var got []map[string]interface{}
	s := newTestResend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails/batch", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"1"},{"id":"2"}]}`))
	})

	err := s.SendBatch(context.Background(), []*Message{
		{To: "a@example.com", Subject: "s", HTML: "<p>a</p>"},
		{To: "b@example.com", Subject: "s", HTML: "<p>b</p>"},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "notifications@updates.matcharestock.com", got[0]["from"])
	assert.Equal(t, []interface{}{"b@example.com"}, got[1]["to"])
}

func TestResendSender_SendBatchError(t *testing.T) {
	s := newTestResend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"statusCode":429,"name":"rate_limit_exceeded","message":"Too many requests"}`))
	})

	err := s.SendBatch(context.Background(), []*Message{{To: "a@example.com"}})
	assert.Error(t, err)
	assert.Equal(t, 0, Delivered(1, err))
}

func TestNewSender(t *testing.T) {
	s, err := NewSender(&config.EmailConfig{Provider: "log"})
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	s, err = NewSender(&config.EmailConfig{Provider: "resend", ResendAPIKey: "re_x"})
	require.NoError(t, err)
	assert.IsType(t, &ResendSender{}, s)

	_, err = NewSender(&config.EmailConfig{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}
