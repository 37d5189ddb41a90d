package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/pkg/ticket"
)

type recordingExecutor struct {
	mu   sync.Mutex
	jobs []Job
	err  error
}

func (r *recordingExecutor) Execute(_ context.Context, job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return r.err
}

func TestLocalDispatcherRunsJobs(t *testing.T) {
	exec := &recordingExecutor{err: errors.New("smtp down")}
	d := NewLocalDispatcher(exec, 2, 10, time.Second)

	d.Dispatch(context.Background(), TicketEmail(1))
	d.Dispatch(context.Background(), EventPublished(2))
	d.Stop()

	assert.Len(t, exec.jobs, 2)
}

type fakeRegistrations struct {
	reg    domain.Registration
	marked []uint
}

func (f *fakeRegistrations) FindByID(_ context.Context, _ uint) (domain.Registration, error) {
	return f.reg, nil
}

func (f *fakeRegistrations) MarkEmailSent(_ context.Context, id uint) error {
	f.marked = append(f.marked, id)
	return nil
}

type fakeUsers struct{ user domain.User }

func (f fakeUsers) FindByID(_ context.Context, _ uint) (domain.User, error) { return f.user, nil }

type fakeEvents struct{ event domain.Event }

func (f fakeEvents) FindByID(_ context.Context, _ uint) (domain.Event, error) { return f.event, nil }

type fakeOrganizers struct{ organizer domain.Organizer }

func (f fakeOrganizers) FindByID(_ context.Context, _ uint) (domain.Organizer, error) {
	return f.organizer, nil
}

type fakeMailer struct {
	sent []Email
	err  error
}

func (f *fakeMailer) Send(_ context.Context, email Email) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email)
	return nil
}

type fakePoster struct {
	urls []string
	msgs []WebhookMessage
}

func (f *fakePoster) Post(_ context.Context, url string, msg WebhookMessage) error {
	f.urls = append(f.urls, url)
	f.msgs = append(f.msgs, msg)
	return nil
}

func TestJobExecutorSendsTicket(t *testing.T) {
	qr, err := ticket.EncodeQR(ticket.Payload{TicketID: "TKT-000000000001", EventID: 3, UserID: 4})
	require.NoError(t, err)

	regs := &fakeRegistrations{reg: domain.Registration{ID: 9, TicketID: "TKT-000000000001", ParticipantID: 4, EventID: 3, QRCode: qr}}
	mailer := &fakeMailer{}
	exec := NewJobExecutor(
		regs,
		fakeUsers{user: domain.User{ID: 4, FirstName: "Asha", Email: "asha@example.com"}},
		fakeEvents{event: domain.Event{ID: 3, Name: "Robotics <Workshop>"}},
		fakeOrganizers{},
		mailer,
		&fakePoster{},
	)

	require.NoError(t, exec.Execute(context.Background(), TicketEmail(9)))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "asha@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].HTML, "Robotics &lt;Workshop&gt;")
	assert.Len(t, mailer.sent[0].Inline, 1)
	assert.Equal(t, []uint{9}, regs.marked)
}

func TestJobExecutorLeavesFlagOnMailFailure(t *testing.T) {
	qr, err := ticket.EncodeQR(ticket.Payload{TicketID: "TKT-000000000001"})
	require.NoError(t, err)

	regs := &fakeRegistrations{reg: domain.Registration{ID: 9, QRCode: qr}}
	exec := NewJobExecutor(regs, fakeUsers{}, fakeEvents{}, fakeOrganizers{}, &fakeMailer{err: errors.New("boom")}, &fakePoster{})

	assert.Error(t, exec.Execute(context.Background(), TicketEmail(9)))
	assert.Empty(t, regs.marked)
}

func TestJobExecutorSkipsPendingTicket(t *testing.T) {
	regs := &fakeRegistrations{reg: domain.Registration{ID: 9, PaymentStatus: domain.PaymentPending}}
	mailer := &fakeMailer{}
	exec := NewJobExecutor(regs, fakeUsers{}, fakeEvents{}, fakeOrganizers{}, mailer, &fakePoster{})

	assert.Error(t, exec.Execute(context.Background(), TicketEmail(9)))
	assert.Empty(t, mailer.sent)
}

func TestJobExecutorAnnouncesEvent(t *testing.T) {
	poster := &fakePoster{}
	exec := NewJobExecutor(
		&fakeRegistrations{},
		fakeUsers{},
		fakeEvents{event: domain.Event{ID: 3, Name: "Hack Night", OrganizerID: 7, Type: domain.EventTypeHackathon}},
		fakeOrganizers{organizer: domain.Organizer{ID: 7, DiscordWebhook: "https://discord.example/hook"}},
		&fakeMailer{},
		poster,
	)

	require.NoError(t, exec.Execute(context.Background(), EventPublished(3)))
	require.Len(t, poster.msgs, 1)
	assert.Equal(t, "https://discord.example/hook", poster.urls[0])
	assert.Equal(t, "New event: Hack Night", poster.msgs[0].Embeds[0].Title)
}

func TestJobExecutorWithoutWebhook(t *testing.T) {
	poster := &fakePoster{}
	exec := NewJobExecutor(&fakeRegistrations{}, fakeUsers{}, fakeEvents{}, fakeOrganizers{}, &fakeMailer{}, poster)

	require.NoError(t, exec.Execute(context.Background(), EventPublished(3)))
	assert.Empty(t, poster.msgs)
}

func TestWebhookPost(t *testing.T) {
	var got WebhookMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	hook := NewWebhook(time.Second)
	msg := WebhookMessage{Embeds: []WebhookEmbed{{Title: "hello"}}}

	require.NoError(t, hook.Post(context.Background(), srv.URL, msg))
	assert.Equal(t, msg, got)
}

func TestWebhookPostFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	assert.Error(t, NewWebhook(time.Second).Post(context.Background(), srv.URL, WebhookMessage{}))
}
