package testsupport

import (
	"context"
	"sync"

	"recipeforge/internal/capability"
)

// Reply is one scripted capability result.
type Reply struct {
	Response capability.Response
	Err      error
}

// TextReply scripts a text response.
func TextReply(text string) Reply {
	return Reply{Response: capability.Response{Text: text}}
}

// ImageReply scripts an image response.
func ImageReply(data []byte) Reply {
	return Reply{Response: capability.Response{Images: []capability.Image{{MIMEType: "image/jpeg", Data: data}}}}
}

// ErrorReply scripts a failure.
func ErrorReply(err error) Reply {
	return Reply{Err: err}
}

// StubCapability records requests and answers them in order. Once the script
// is exhausted the last reply repeats.
type StubCapability struct {
	mu       sync.Mutex
	replies  []Reply
	requests []capability.Request
}

// NewStubCapability scripts replies in call order.
func NewStubCapability(replies ...Reply) *StubCapability {
	return &StubCapability{replies: replies}
}

func (s *StubCapability) Generate(_ context.Context, req capability.Request) (capability.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if len(s.replies) == 0 {
		return capability.Response{}, nil
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return reply.Response, reply.Err
}

// Requests returns a copy of the recorded requests.
func (s *StubCapability) Requests() []capability.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]capability.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Calls returns how many requests were made.
func (s *StubCapability) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
