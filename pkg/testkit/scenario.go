// Package testkit runs JSON-described API scenarios against an
// http.Handler. A scenario sits next to the test that runs it:
//
//	testdata/
//	  cart_add_too_many.json        scenario
//	  cart_add_too_many_req.json    request body
//	  cart_add_too_many_res.json    expected response body
//
// Scenario fields:
//
//	{
//	  "name": "cart add too many",
//	  "as": "test@example.com",
//	  "requestMethod": "POST",
//	  "requestUrl": "/api/cart/items",
//	  "requestFileName": "cart_add_too_many_req.json",
//	  "expectedCode": 422,
//	  "responseFileName": "cart_add_too_many_res.json",
//	  "expectedMail": [{"to": "admin@example.com", "subject": "..."}]
//	}
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Scenario is one request and its expected outcome.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	// As names the account the request is authenticated as. Empty means
	// anonymous.
	As string `json:"as"`

	RequestMethod   string            `json:"requestMethod"`
	RequestURL      string            `json:"requestUrl"`
	RequestFileName string            `json:"requestFileName"`
	Headers         map[string]string `json:"headers"`

	ExpectedCode     int    `json:"expectedCode"`
	ResponseFileName string `json:"responseFileName"`

	ExpectedMail []MailExpectation `json:"expectedMail"`

	dir string
}

// MailExpectation matches one message recorded by the fake mailer.
type MailExpectation struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
}

// LoadScenario reads a scenario file. Referenced files are resolved
// relative to it.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = filepath.Base(path)
	}
	if s.RequestURL == "" {
		return nil, fmt.Errorf("testkit: %s: requestUrl is required", path)
	}
	if s.ExpectedCode == 0 {
		return nil, fmt.Errorf("testkit: %s: expectedCode is required", path)
	}
	s.dir = filepath.Dir(path)
	return &s, nil
}

func (s *Scenario) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// RequestBodyPath is the absolute or scenario-relative request body file.
func (s *Scenario) RequestBodyPath() string { return s.resolve(s.RequestFileName) }

// ResponseBodyPath is the expected response file, if any.
func (s *Scenario) ResponseBodyPath() string { return s.resolve(s.ResponseFileName) }
