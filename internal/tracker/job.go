package tracker

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("job not found")
	ErrDuplicateID   = errors.New("duplicate job id")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidFilter = errors.New("invalid filter")
)

type Status string

const (
	StatusNone         Status = "none"
	StatusInterviewing Status = "interview"
	StatusRejected     Status = "rejected"
)

// ParseStatus accepts the wire names plus a few spellings a user might type.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return StatusNone, nil
	case "interview", "interviewing":
		return StatusInterviewing, nil
	case "rejected", "reject":
		return StatusRejected, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// ParseToggle parses the target of a status control. Only the interview and
// rejected controls exist, so "none" is not a valid target.
func ParseToggle(s string) (Status, error) {
	status, err := ParseStatus(s)
	if err != nil {
		return "", err
	}
	if status == StatusNone {
		return "", fmt.Errorf("%w: %q is not a control", ErrInvalidStatus, s)
	}
	return status, nil
}

// Toggle returns the status after a user presses the control for target:
// pressing the active control clears it, anything else replaces it.
func (s Status) Toggle(target Status) Status {
	if s == target {
		return StatusNone
	}
	return target
}

// Badge is the card label for the status.
func (s Status) Badge() string {
	switch s {
	case StatusInterviewing:
		return "INTERVIEWING"
	case StatusRejected:
		return "REJECTED"
	default:
		return "NOT APPLIED"
	}
}

type Filter string

const (
	FilterAll          Filter = "all"
	FilterInterviewing Filter = "interview"
	FilterRejected     Filter = "rejected"
)

// Filters lists every filter in tab order.
var Filters = []Filter{FilterAll, FilterInterviewing, FilterRejected}

func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "":
		return FilterAll, nil
	case "interview", "interviewing":
		return FilterInterviewing, nil
	case "rejected", "reject":
		return FilterRejected, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
}

// Matches reports whether a record with status s is shown under f.
func (f Filter) Matches(s Status) bool {
	switch f {
	case FilterAll:
		return true
	case FilterInterviewing:
		return s == StatusInterviewing
	case FilterRejected:
		return s == StatusRejected
	default:
		return false
	}
}

func (f Filter) Label() string {
	switch f {
	case FilterInterviewing:
		return "Interviewing"
	case FilterRejected:
		return "Rejected"
	default:
		return "All"
	}
}

type JobRecord struct {
	ID          int    `json:"id" yaml:"id"`
	CompanyName string `json:"company_name" yaml:"companyName"`
	Position    string `json:"position" yaml:"position"`
	Location    string `json:"location" yaml:"location"`
	Type        string `json:"type" yaml:"type"`
	Salary      string `json:"salary" yaml:"salary"`
	Description string `json:"description" yaml:"description"`
	Status      Status `json:"status" yaml:"-"`
}

func New(id int, company, position, location, jobType, salary, description string) JobRecord {
	return JobRecord{
		ID:          id,
		CompanyName: company,
		Position:    position,
		Location:    location,
		Type:        jobType,
		Salary:      salary,
		Description: description,
		Status:      StatusNone,
	}
}
