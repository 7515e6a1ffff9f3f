package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/LawAgent/internal/models"
)

type staticToken string

func (t staticToken) Token() string { return string(t) }

type recorded struct {
	Auth      string
	RequestID string
	Command   string
}

func newBackend(t *testing.T, status int, body string) (*httptest.Server, *[]recorded, *sync.Mutex) {
	t.Helper()
	var mu sync.Mutex
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, CommandPath, r.URL.Path)

		var req commandRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		calls = append(calls, recorded{
			Auth:      r.Header.Get("Authorization"),
			RequestID: r.Header.Get("X-Request-ID"),
			Command:   req.Command,
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls, &mu
}

func TestEmptyCommandNeverHitsServer(t *testing.T) {
	srv, calls, _ := newBackend(t, http.StatusOK, `{"results":[]}`)
	d := New(srv.URL, nil)
	s := d.NewSubmitter("surface")

	for _, cmd := range []models.Command{"", "   ", "\t\n"} {
		_, err := s.Submit(context.Background(), cmd)
		assert.ErrorIs(t, err, ErrEmptyCommand)
		_, err = d.Dispatch(context.Background(), cmd)
		assert.ErrorIs(t, err, ErrEmptyCommand)
	}
	assert.Empty(t, *calls)
	assert.False(t, s.IsPending())
}

func TestAuthorizationHeader(t *testing.T) {
	srv, calls, _ := newBackend(t, http.StatusOK, `{"results":[]}`)

	_, err := New(srv.URL, staticToken("abc")).Dispatch(context.Background(), "open dashboard")
	require.NoError(t, err)
	_, err = New(srv.URL, staticToken("")).Dispatch(context.Background(), "open dashboard")
	require.NoError(t, err)
	_, err = New(srv.URL+"/", nil).Dispatch(context.Background(), "  open dashboard  ")
	require.NoError(t, err)

	require.Len(t, *calls, 3)
	assert.Equal(t, "Bearer abc", (*calls)[0].Auth)
	assert.Empty(t, (*calls)[1].Auth)
	assert.Empty(t, (*calls)[2].Auth)
	assert.Equal(t, "open dashboard", (*calls)[2].Command)
	assert.NotEmpty(t, (*calls)[0].RequestID)
	assert.NotEqual(t, (*calls)[0].RequestID, (*calls)[1].RequestID)
}

func TestParsesSteps(t *testing.T) {
	srv, _, _ := newBackend(t, http.StatusOK,
		`{"results":[{"tool":"login","success":true,"result":{"token":"T","user_email":"a@b.c","navigate":"dashboard"}}]}`)

	resp, err := New(srv.URL, nil).Dispatch(context.Background(), "login")
	require.NoError(t, err)
	require.Len(t, resp.Steps, 1)
	assert.True(t, resp.Steps[0].Result.HasCredentials())
	assert.NotEmpty(t, resp.Raw)
}

func TestLegacyLoginShape(t *testing.T) {
	srv, _, _ := newBackend(t, http.StatusOK, `{"login":{"success":true,"token":"L"}}`)

	resp, err := New(srv.URL, nil).Dispatch(context.Background(), "login with email=me@law.io password=x")
	require.NoError(t, err)
	assert.True(t, resp.Legacy)
	require.Len(t, resp.Steps, 1)
	assert.Equal(t, "L", resp.Steps[0].Result.Token)
	assert.Equal(t, "me@law.io", resp.Steps[0].Result.UserEmail)
}

func TestHTTPErrorStatus(t *testing.T) {
	srv, _, _ := newBackend(t, http.StatusInternalServerError, `{"error":"boom"}`)

	_, err := New(srv.URL, nil).Dispatch(context.Background(), "search contracts")
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusInternalServerError, terr.Status)
	assert.Equal(t, "boom", terr.Message)
}

func TestHTTPErrorFallsBackToStatus(t *testing.T) {
	srv, _, _ := newBackend(t, http.StatusBadGateway, `<html>bad gateway</html>`)

	_, err := New(srv.URL, nil).Dispatch(context.Background(), "search")
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "502 Bad Gateway", terr.Message)
}

func TestUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).Dispatch(context.Background(), "help")
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Zero(t, terr.Status)
}

func TestMalformedBody(t *testing.T) {
	srv, _, _ := newBackend(t, http.StatusOK, `not json`)

	_, err := New(srv.URL, nil).Dispatch(context.Background(), "help")
	var merr *MalformedResponseError
	require.ErrorAs(t, err, &merr)
	assert.ErrorIs(t, err, models.ErrMalformedResponse)
	assert.Equal(t, []byte("not json"), merr.Body)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(srv.URL, nil, WithTimeout(50*time.Millisecond)).Dispatch(context.Background(), "help")
	var terr *TransportError
	assert.ErrorAs(t, err, &terr)
}

func TestTimeoutLeavesSharedClientAlone(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	after := New("http://backend", nil, WithHTTPClient(shared), WithTimeout(2*time.Second))
	before := New("http://backend", nil, WithTimeout(3*time.Second), WithHTTPClient(shared))
	plain := New("http://backend", nil, WithHTTPClient(shared))

	assert.Equal(t, time.Minute, shared.Timeout)
	assert.Equal(t, 2*time.Second, after.httpClient.Timeout)
	assert.Equal(t, 3*time.Second, before.httpClient.Timeout)
	assert.NotSame(t, shared, after.httpClient)
	assert.Same(t, shared, plain.httpClient)
}

func TestSubmitterCoalescesConcurrentSubmissions(t *testing.T) {
	var hits atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			close(entered)
		}
		<-release
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	s := New(srv.URL, nil).NewSubmitter("surface")

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "search tenancy law")
		done <- err
	}()
	<-entered
	assert.True(t, s.IsPending())

	_, err := s.Submit(context.Background(), "search tenancy law")
	assert.ErrorIs(t, err, ErrSubmissionPending)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, s.IsPending())
	assert.Equal(t, int32(1), hits.Load())

	// The guard is released once the first submission settles.
	_, err = s.Submit(context.Background(), "help")
	assert.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestSubmittersAreIndependent(t *testing.T) {
	srv, calls, mu := newBackend(t, http.StatusOK, `{"results":[]}`)
	d := New(srv.URL, nil)

	a, b := d.NewSubmitter("a"), d.NewSubmitter("b")
	_, errA := a.Submit(context.Background(), "help")
	_, errB := b.Submit(context.Background(), "help")
	require.NoError(t, errA)
	require.NoError(t, errB)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, *calls, 2)
}

func TestTransportErrorMessage(t *testing.T) {
	err := &TransportError{Status: 401, Message: "expired"}
	assert.Equal(t, "backend returned 401 Unauthorized: expired", err.Error())

	cause := errors.New("dial tcp: refused")
	err = &TransportError{Message: cause.Error(), Err: cause}
	assert.ErrorIs(t, err, cause)
}

func TestSubmitAsyncReservesSynchronously(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"results":[{"tool":"help","success":true,"result":{"help_text":"hi"}}]}`))
	}))
	defer srv.Close()

	s := New(srv.URL, nil).NewSubmitter("surface")
	done := make(chan models.CommandResponse, 1)

	require.NoError(t, s.SubmitAsync(context.Background(), "help", func(resp models.CommandResponse, err error) {
		assert.NoError(t, err)
		done <- resp
	}))
	assert.True(t, s.IsPending())
	assert.ErrorIs(t, s.SubmitAsync(context.Background(), "help", func(models.CommandResponse, error) {
		t.Error("coalesced submission must not complete")
	}), ErrSubmissionPending)
	_, err := s.Submit(context.Background(), "help")
	assert.ErrorIs(t, err, ErrSubmissionPending)
	assert.ErrorIs(t, s.SubmitAsync(context.Background(), " ", nil), ErrEmptyCommand)

	close(release)
	resp := <-done
	assert.Equal(t, []string{"help"}, resp.Tools())
	assert.Eventually(t, func() bool { return !s.IsPending() }, time.Second, 5*time.Millisecond)
}
