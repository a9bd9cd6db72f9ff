package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/upb/spt-policy-engineer/internal/spt"
)

// RecordStatus is the outcome of one test case
type RecordStatus string

const (
	RecordStatusSuccess RecordStatus = "success" // checklist and every policy attempt succeeded
	RecordStatusPartial RecordStatus = "partial" // checklist succeeded, some attempts failed
	RecordStatusFailed  RecordStatus = "failed"  // checklist failed, or no attempt succeeded
)

// AttemptStatus is the outcome of one policy generation attempt
type AttemptStatus string

const (
	AttemptStatusSuccess AttemptStatus = "success"
	AttemptStatusFailed  AttemptStatus = "failed"
)

// ErrorRecord is the serialised form of a generation failure
type ErrorRecord struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// PolicyAttempt is one independent policy sample
type PolicyAttempt struct {
	Iteration  int             `json:"iteration"`
	Status     AttemptStatus   `json:"status"`
	RawPolicy  string          `json:"rawPolicy,omitempty"`
	Statements []spt.Statement `json:"statements"`
	Warnings   []string        `json:"warnings,omitempty"`
	Error      *ErrorRecord    `json:"error,omitempty"`
	DurationMs int64           `json:"durationMs"`
}

// RecordMetadata describes how a test record was produced
type RecordMetadata struct {
	Timestamp  time.Time `json:"timestamp"`
	Iterations int       `json:"iterations"`
	Model      string    `json:"model,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	DurationMs int64     `json:"durationMs"`
}

// TestRecord owns one checklist and the ordered policy attempts made from it
type TestRecord struct {
	ID             uuid.UUID       `json:"id"`
	OriginalText   string          `json:"originalText"`
	Status         RecordStatus    `json:"status"`
	InputWarnings  []string        `json:"inputWarnings,omitempty"`
	Checklist      *Checklist      `json:"checklist,omitempty"`
	ChecklistError *ErrorRecord    `json:"checklistError,omitempty"`
	PolicyAttempts []PolicyAttempt `json:"policyAttempts"`
	Metadata       RecordMetadata  `json:"metadata"`
}

// NewTestRecord creates a record for one requirement text
func NewTestRecord(text string, iterations int) *TestRecord {
	return &TestRecord{
		ID:             uuid.New(),
		OriginalText:   text,
		Status:         RecordStatusFailed,
		PolicyAttempts: make([]PolicyAttempt, 0, iterations),
		Metadata: RecordMetadata{
			Timestamp:  time.Now().UTC(),
			Iterations: iterations,
		},
	}
}

// MarkChecklistFailed records a checklist failure. No attempts follow it.
func (r *TestRecord) MarkChecklistFailed(errRecord *ErrorRecord) {
	r.Checklist = nil
	r.ChecklistError = errRecord
	r.Status = RecordStatusFailed
}

// AddAttempt appends a policy attempt, numbering it from 1 in call order
func (r *TestRecord) AddAttempt(attempt PolicyAttempt) {
	attempt.Iteration = len(r.PolicyAttempts) + 1
	if attempt.Statements == nil {
		attempt.Statements = []spt.Statement{}
	}
	r.PolicyAttempts = append(r.PolicyAttempts, attempt)
}

// SuccessfulAttempts counts attempts that produced parseable policy
func (r *TestRecord) SuccessfulAttempts() int {
	n := 0
	for _, a := range r.PolicyAttempts {
		if a.Status == AttemptStatusSuccess {
			n++
		}
	}
	return n
}

// Finalize derives the record status and stamps the total duration
func (r *TestRecord) Finalize(elapsed time.Duration) {
	r.Metadata.DurationMs = elapsed.Milliseconds()

	ok := r.SuccessfulAttempts()
	switch {
	case r.ChecklistError != nil || r.Checklist == nil:
		r.Status = RecordStatusFailed
	case ok == len(r.PolicyAttempts) && ok > 0:
		r.Status = RecordStatusSuccess
	case ok > 0:
		r.Status = RecordStatusPartial
	default:
		r.Status = RecordStatusFailed
	}
}

// TestRun is the header of a batch report
type TestRun struct {
	RunID           uuid.UUID `json:"runId"`
	Timestamp       time.Time `json:"timestamp"`
	TotalTestCases  int       `json:"totalTestCases"`
	PoliciesPerCase int       `json:"policiesPerCase"`
	Model           string    `json:"model,omitempty"`
	Provider        string    `json:"provider,omitempty"`
}

// BatchSummary counts outcomes across a batch
type BatchSummary struct {
	SuccessfulCases    int `json:"successfulCases"`
	PartialCases       int `json:"partialCases"`
	FailedCases        int `json:"failedCases"`
	SuccessfulAttempts int `json:"successfulAttempts"`
	FailedAttempts     int `json:"failedAttempts"`
}

// BatchReport is the single document written per batch run
type BatchReport struct {
	TestRun TestRun       `json:"testRun"`
	Results []*TestRecord `json:"results"`
	Summary BatchSummary  `json:"summary"`
}

// NewBatchReport creates an empty report for a run of totalCases inputs
func NewBatchReport(totalCases, policiesPerCase int, model, provider string) *BatchReport {
	return &BatchReport{
		TestRun: TestRun{
			RunID:           uuid.New(),
			Timestamp:       time.Now().UTC(),
			TotalTestCases:  totalCases,
			PoliciesPerCase: policiesPerCase,
			Model:           model,
			Provider:        provider,
		},
		Results: make([]*TestRecord, 0, totalCases),
	}
}

// Add appends a finalized record and folds it into the summary
func (b *BatchReport) Add(record *TestRecord) {
	b.Results = append(b.Results, record)

	switch record.Status {
	case RecordStatusSuccess:
		b.Summary.SuccessfulCases++
	case RecordStatusPartial:
		b.Summary.PartialCases++
	default:
		b.Summary.FailedCases++
	}

	ok := record.SuccessfulAttempts()
	b.Summary.SuccessfulAttempts += ok
	b.Summary.FailedAttempts += len(record.PolicyAttempts) - ok
}
