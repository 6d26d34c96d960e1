// Learning-loop entities: approved drafts, the theses extracted from them,
// and the background jobs that run the extraction.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Approval statuses for a draft.
const (
	DraftApproved       = "approved"
	DraftEditedApproved = "edited_approved"
	DraftRejected       = "rejected"
)

// Lifecycle states for a learned thesis.
const (
	ThesisPending  = "pending"  // awaiting human conflict resolution
	ThesisActive   = "active"   // usable for grounding
	ThesisObsolete = "obsolete" // superseded by replace/merge
	ThesisRejected = "rejected" // discarded, not retrievable
)

// Extraction job states.
const (
	JobQueued  = "queued"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// StringList is a []string stored as a JSON array in a TEXT column
// (thesis keywords, conflict candidate IDs).
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	var b []byte
	switch t := src.(type) {
	case []byte:
		b = t
	case string:
		b = []byte(t)
	default:
		return fmt.Errorf("stringlist: unsupported column type %T", src)
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// ApprovedDraft is the text of a generated legal draft at the moment the user
// approved (or rejected) it. Rows are immutable after creation; an edit made
// before finalization is captured in EditedContent.
type ApprovedDraft struct {
	ID             string         `json:"id"              gorm:"type:char(36);primaryKey"`
	UserID         string         `json:"user_id"         gorm:"type:varchar(64);not null;index"`
	ConversationID string         `json:"conversation_id" gorm:"type:char(36);not null;index"`
	MessageID      string         `json:"message_id"      gorm:"type:char(36);not null;uniqueIndex"`
	CaseID         *string        `json:"case_id,omitempty" gorm:"type:char(36);index"`
	Content        string         `json:"content"         gorm:"type:text;not null"`
	EditedContent  string         `json:"edited_content,omitempty" gorm:"type:text"`
	Notes          string         `json:"notes,omitempty" gorm:"type:text"`
	Status         string         `json:"status"          gorm:"type:varchar(32);not null;check:status IN ('approved','edited_approved','rejected')"`
	CreatedAt      time.Time      `json:"created_at"`
	DeletedAt      gorm.DeletedAt `json:"-"               gorm:"index"`
}

// TableName returns the database table name for ApprovedDraft.
func (ApprovedDraft) TableName() string { return "approved_drafts" }

// FinalText returns the user-edited text when present, the generated text
// otherwise. Extraction always runs over the final text.
func (d ApprovedDraft) FinalText() string {
	if d.EditedContent != "" {
		return d.EditedContent
	}
	return d.Content
}

// LearnedThesis is the reusable legal reasoning distilled from one approved
// draft. Exactly one thesis is the direct product of one draft's extraction;
// a merge may fold another thesis's foundations text into it.
type LearnedThesis struct {
	ID                 string     `json:"id"       gorm:"type:char(36);primaryKey"`
	UserID             string     `json:"user_id"  gorm:"type:varchar(64);not null;index:idx_user_theses"`
	DraftID            string     `json:"draft_id" gorm:"type:char(36);not null;uniqueIndex"`
	CaseID             *string    `json:"case_id,omitempty" gorm:"type:char(36)"`
	LegalThesis        string     `json:"legal_thesis"      gorm:"type:text;not null"`
	LegalFoundations   string     `json:"legal_foundations" gorm:"type:text"`
	Keywords           StringList `json:"keywords"          gorm:"type:text"`
	WritingStyleSample string     `json:"writing_style_sample,omitempty" gorm:"type:text"`
	Formality          string     `json:"formality,omitempty" gorm:"type:varchar(64)"`
	Structure          string     `json:"structure,omitempty" gorm:"type:text"`
	Tone               string     `json:"tone,omitempty"      gorm:"type:varchar(64)"`
	Status             string     `json:"status" gorm:"type:varchar(16);not null;index;check:status IN ('pending','active','obsolete','rejected')"`
	Embedding          Vector     `json:"-"      gorm:"type:text"`

	// ConflictWith lists the IDs of the similar active theses found during
	// extraction, set only while Status is pending.
	ConflictWith StringList `json:"conflict_with,omitempty" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for LearnedThesis.
func (LearnedThesis) TableName() string { return "learned_theses" }

// ExtractionJob is one queued unit of background thesis extraction. Jobs are
// fire-and-forget: the approval request only inserts the row; a worker picks
// it up later. Failures never surface to the approval flow.
type ExtractionJob struct {
	ID        string    `json:"id"       gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"  gorm:"type:varchar(64);not null;index"`
	DraftID   string    `json:"draft_id" gorm:"type:char(36);not null;uniqueIndex"`
	Status    string    `json:"status"   gorm:"type:varchar(16);not null;index;check:status IN ('queued','running','done','failed')"`
	Note      string    `json:"note,omitempty"  gorm:"type:text"`
	Error     string    `json:"error,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for ExtractionJob.
func (ExtractionJob) TableName() string { return "extraction_jobs" }
