package judge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeJudge struct {
	mux       *http.ServeMux
	responses []submissionResponse
	polls     int
	submits   int
}

func newFakeJudge(responses ...submissionResponse) *fakeJudge {
	f := &fakeJudge{mux: http.NewServeMux(), responses: responses}

	f.mux.HandleFunc("POST /submissions", func(w http.ResponseWriter, r *http.Request) {
		f.submits++
		_ = json.NewEncoder(w).Encode(submissionResponse{Token: "tok-1"})
	})
	f.mux.HandleFunc("GET /submissions/tok-1", func(w http.ResponseWriter, r *http.Request) {
		idx := f.polls
		if idx >= len(f.responses) {
			idx = len(f.responses) - 1
		}
		f.polls++
		_ = json.NewEncoder(w).Encode(f.responses[idx])
	})

	return f
}

func newTestClient(t *testing.T, f *fakeJudge, maxPolls int) Client {
	t.Helper()
	server := httptest.NewServer(f.mux)
	t.Cleanup(server.Close)

	return NewClient(Config{
		BaseURL:  server.URL,
		PollWait: time.Millisecond,
		MaxPolls: maxPolls,
		Logger:   zerolog.Nop(),
	})
}

func TestClientExecuteReturnsStdoutOnSuccess(t *testing.T) {
	fake := newFakeJudge(
		submissionResponse{Status: submissionStatus{ID: 2, Description: "Processing"}},
		submissionResponse{Status: submissionStatus{ID: 3, Description: "Accepted"}, Stdout: "42\n", Time: "0.021", Memory: 3200},
	)
	client := newTestClient(t, fake, 20)

	outcome, err := client.Execute(context.Background(), "print(42)", 71, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, outcome.Kind)
	require.Equal(t, "42\n", outcome.Stdout)
	require.InDelta(t, 0.021, outcome.TimeSec, 1e-9)
	require.Equal(t, 3200, outcome.Memory)
	require.Equal(t, 2, fake.polls, "expected polling to stop at the first terminal status")
}

func TestClientExecuteTimesOutWhenNeverTerminal(t *testing.T) {
	fake := newFakeJudge(submissionResponse{Status: submissionStatus{ID: 2, Description: "Processing"}})
	client := newTestClient(t, fake, 5)

	_, err := client.Execute(context.Background(), "while True: pass", 71, "")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrExecutionTimeout))
	require.Equal(t, 5, fake.polls)
}

func TestClientExecuteReportsTransportErrorOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL, PollWait: time.Millisecond, MaxPolls: 3, Logger: zerolog.Nop()})

	_, err := client.Execute(context.Background(), "print(1)", 71, "")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrTransport))
}

func TestClientExecuteReportsTransportErrorOnMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL, PollWait: time.Millisecond, MaxPolls: 3, Logger: zerolog.Nop()})

	_, err := client.Execute(context.Background(), "print(1)", 71, "")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrTransport))
}

func TestClientExecuteDecodesCompileError(t *testing.T) {
	fake := newFakeJudge(submissionResponse{
		Status:        submissionStatus{ID: 6, Description: "Compilation Error"},
		CompileOutput: "main.c:1: error: expected ';'",
	})
	client := newTestClient(t, fake, 20)

	outcome, err := client.Execute(context.Background(), "int main( {}", 50, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeCompileError, outcome.Kind)
	require.Contains(t, outcome.Cause, "expected ';'")
}
