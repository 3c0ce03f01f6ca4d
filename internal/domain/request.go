package domain

import "time"

// RequestType discriminates the request union. The string values double as the
// keys of a course's effective-request-types map.
type RequestType string

const (
	RequestSwapSection       RequestType = "Swap Section"
	RequestDeadlineExtension RequestType = "Deadline Extension"
)

func (t RequestType) Valid() bool {
	return t == RequestSwapSection || t == RequestDeadlineExtension
}

// Decision is an instructor's verdict on a request.
type Decision string

const (
	DecisionApprove Decision = "Approve"
	DecisionReject  Decision = "Reject"
)

func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// ProofAttachment references a supporting document uploaded out of band.
type ProofAttachment struct {
	Name        string `bson:"name" json:"name"`
	ContentType string `bson:"contentType" json:"contentType"`
	URL         string `bson:"url" json:"url"`
}

// RequestDetails carries the free-text justification common to all request
// types.
type RequestDetails struct {
	Reason string            `bson:"reason" json:"reason" validate:"required"`
	Proof  []ProofAttachment `bson:"proof" json:"proof"`
}

// SwapSectionMeta is the metadata of a Swap Section request. Dates are
// "YYYY-MM-DD" and name the occurrences being swapped between.
type SwapSectionMeta struct {
	FromSection string `bson:"fromSection" json:"fromSection" validate:"required"`
	FromDate    string `bson:"fromDate" json:"fromDate" validate:"required"`
	ToSection   string `bson:"toSection" json:"toSection" validate:"required"`
	ToDate      string `bson:"toDate" json:"toDate" validate:"required"`
}

// DeadlineExtensionMeta is the metadata of a Deadline Extension request.
type DeadlineExtensionMeta struct {
	Assignment string    `bson:"assignment" json:"assignment" validate:"required"`
	Deadline   time.Time `bson:"deadline" json:"deadline" validate:"required"`
}

// Response is attached to exactly one request, once. It is never edited or
// deleted afterwards.
type Response struct {
	From      string    `bson:"from" json:"from"`
	Decision  Decision  `bson:"decision" json:"decision"`
	Remarks   string    `bson:"remarks" json:"remarks"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Request is the tagged union over request types. Exactly one of Swap and
// Extension is set, matching Type. A nil Response means the request is still
// unanswered; the transition to answered happens exactly once.
type Request struct {
	ID        string         `bson:"id" json:"id"`
	Type      RequestType    `bson:"type" json:"type"`
	From      string         `bson:"from" json:"from"`
	Class     Class          `bson:"class" json:"class"`
	Details   RequestDetails `bson:"details" json:"details"`
	CreatedAt time.Time      `bson:"createdAt" json:"createdAt"`
	Response  *Response      `bson:"response" json:"response"`

	Swap      *SwapSectionMeta       `bson:"swap,omitempty" json:"swap,omitempty"`
	Extension *DeadlineExtensionMeta `bson:"extension,omitempty" json:"extension,omitempty"`
}

// Answered reports whether a response has been attached.
func (r Request) Answered() bool {
	return r.Response != nil
}
