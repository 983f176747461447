package ingest

import (
	"github.com/StafflyAI/staffly-mvp/engine/domain"
)

const (
	// ResumeSubject is the NATS subject for uploaded resumes.
	ResumeSubject = "engine.resumes"
	// DLQSubject is the dead letter queue subject for failed uploads.
	DLQSubject = "engine.resumes.dlq"
	// MaxRetries before sending to DLQ.
	MaxRetries = 3
)

// ResumeUpload is one uploaded resume entering the pipeline. Data is
// the raw PDF; ID becomes the consultant ID once ingested.
type ResumeUpload struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	Data     []byte `json:"data"`
}

// ExtractedResume carries the upload plus its plain text.
type ExtractedResume struct {
	ResumeUpload
	Text string
}

// ProfileDoc is an extracted consultant profile plus the text used to
// embed it.
type ProfileDoc struct {
	ResumeUpload
	Profile domain.ConsultantProfile
	Text    string
}

// EmbeddedProfile is a ProfileDoc with its embedding computed.
type EmbeddedProfile struct {
	ProfileDoc
	Embedding []float32
}
