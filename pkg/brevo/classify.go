package brevo

import (
	"encoding/json"
	"net/http"
	"strings"
)

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRecognizedConflict
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRecognizedConflict:
		return "recognized_conflict"
	default:
		return "failure"
	}
}

// duplicateCode is what Brevo answers with (HTTP 400) when a contact exists.
const duplicateCode = "duplicate_parameter"

type Result struct {
	Outcome    Outcome
	StatusCode int
	Detail     string
}

func (r Result) IsFailure() bool {
	return r.Outcome == OutcomeFailure
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Classify maps a provider call to Success, RecognizedConflict or Failure.
// It makes no policy decision about what to do with the result.
func Classify(resp *Response, err error) Result {
	if err != nil {
		return Result{Outcome: OutcomeFailure, Detail: err.Error()}
	}
	if resp == nil {
		return Result{Outcome: OutcomeFailure, Detail: "empty response"}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Result{Outcome: OutcomeSuccess, StatusCode: resp.StatusCode}
	}

	body := string(resp.Body)
	if resp.StatusCode == http.StatusBadRequest && isDuplicate(resp.Body) {
		return Result{Outcome: OutcomeRecognizedConflict, StatusCode: resp.StatusCode, Detail: body}
	}

	return Result{Outcome: OutcomeFailure, StatusCode: resp.StatusCode, Detail: body}
}

func isDuplicate(body []byte) bool {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Code != "" {
		return parsed.Code == duplicateCode
	}
	return strings.Contains(string(body), duplicateCode)
}
