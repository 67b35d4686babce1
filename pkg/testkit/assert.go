package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/shopfront/pkg/mail"
)

func AssertStatusCode(t *testing.T, s *Scenario, got int, body []byte) {
	t.Helper()
	assert.Equal(t, s.ExpectedCode, got, "[%s] status code mismatch\nbody: %s", s.Name, body)
}

// AssertJSONBody compares bodies as JSON, so key order and whitespace do
// not matter.
func AssertJSONBody(t *testing.T, s *Scenario, expected, actual []byte) {
	t.Helper()
	assert.JSONEq(t, string(expected), string(actual), "[%s] response body mismatch", s.Name)
}

// AssertMail checks that exactly the expected messages were sent, in order.
func AssertMail(t *testing.T, s *Scenario, sent []*mail.Message) {
	t.Helper()
	if !assert.Len(t, sent, len(s.ExpectedMail), "[%s] sent mail count", s.Name) {
		return
	}
	for i, want := range s.ExpectedMail {
		assert.Contains(t, sent[i].Recipients(), want.To, "[%s] mail %d recipient", s.Name, i)
		assert.Equal(t, want.Subject, sent[i].SubjectLine(), "[%s] mail %d subject", s.Name, i)
	}
}
