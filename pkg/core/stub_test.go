package core

import (
	"context"
	"sync"

	"github.com/saturnines/nexus-source/pkg/transport"
)

type call struct {
	Entry   string // Get, Post or Request
	Method  string
	URL     string
	Body    string
	Headers map[string]string
	UseAuth bool
}

type reply struct {
	outcome *transport.Outcome
	err     error
}

// stubTransport replays scripted replies and records every call.
// The last reply repeats once the script is exhausted.
type stubTransport struct {
	mu      sync.Mutex
	replies []reply
	calls   []call
}

func newStub(replies ...reply) *stubTransport {
	return &stubTransport{replies: replies}
}

func ok(body string) reply {
	return reply{outcome: &transport.Outcome{OK: true, StatusCode: 200, Body: []byte(body)}}
}

func status(code int) reply {
	return reply{outcome: &transport.Outcome{OK: false, StatusCode: code}}
}

func fail(err error) reply {
	return reply{err: err}
}

func (s *stubTransport) next(c call) (*transport.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
	if len(s.replies) == 0 {
		return &transport.Outcome{OK: true, StatusCode: 200}, nil
	}
	r := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return r.outcome, r.err
}

func (s *stubTransport) Get(_ context.Context, url string, headers map[string]string, useAuth bool) (*transport.Outcome, error) {
	return s.next(call{Entry: "Get", Method: "GET", URL: url, Headers: headers, UseAuth: useAuth})
}

func (s *stubTransport) Post(_ context.Context, url, body string, headers map[string]string, useAuth bool) (*transport.Outcome, error) {
	return s.next(call{Entry: "Post", Method: "POST", URL: url, Body: body, Headers: headers, UseAuth: useAuth})
}

func (s *stubTransport) Request(_ context.Context, method, url, body string, headers map[string]string, useAuth bool) (*transport.Outcome, error) {
	return s.next(call{Entry: "Request", Method: method, URL: url, Body: body, Headers: headers, UseAuth: useAuth})
}

func (s *stubTransport) Calls() []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]call(nil), s.calls...)
}
