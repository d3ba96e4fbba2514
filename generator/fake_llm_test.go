package generator

import (
	"context"
	"sync"
	"time"
)

// scriptedLLM replays canned replies in order and records every request.
type scriptedLLM struct {
	mu       sync.Mutex
	replies  []scriptedReply
	requests []Request
}

type scriptedReply struct {
	text string
	err  error
}

func (s *scriptedLLM) Name() string { return "scripted" }

func (s *scriptedLLM) Complete(_ context.Context, req Request) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if len(s.replies) == 0 {
		return Response{}, newBackendError("scripted", 0, "no scripted reply left")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	if r.err != nil {
		return Response{}, r.err
	}
	return Response{Text: r.text, Duration: 10 * time.Millisecond}, nil
}

type staticTitles []string

func (t staticTitles) ExistingTitles(context.Context) ([]string, error) { return t, nil }
