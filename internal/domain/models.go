// Package domain defines the persistence models for conversations, court
// cases, ingested documents, and the knowledge learned from approved drafts.
// These types are mapped with GORM and form the core data layer of the
// legal-assistant backend.
//
// Every aggregate carries the owning user's ID; repository queries must
// always filter on it. Nothing in this package is visible across users.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Conversation represents a dialog owned by a user, optionally linked to a
// court case. The title is auto-generated from the first user message and can
// be renamed later.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the owner; indexed for efficient retrieval.
//   - CaseID: optional link to the case this dialog is grounded on.
//   - Title: human-readable title.
//   - Pinned: keeps the conversation at the top of listings.
//   - PersonaOverride: optional replacement for the default system persona.
//   - DocumentRef: opaque handle of the last session-scoped uploaded file.
type Conversation struct {
	ID              string         `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID          string         `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_convs"`
	CaseID          *string        `json:"case_id,omitempty" gorm:"type:char(36);index"`
	Title           string         `json:"title"      gorm:"type:varchar(255);not null;default:'Nova conversa'"`
	Pinned          bool           `json:"pinned"     gorm:"not null;default:false"`
	PersonaOverride string         `json:"persona_override,omitempty" gorm:"type:text"`
	DocumentRef     string         `json:"document_ref,omitempty" gorm:"type:varchar(255)"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Message is a single utterance within a conversation. Messages are immutable
// once created; insertion order (CreatedAt ASC, ID ASC) is the only ordering
// guarantee and must be preserved exactly as received.
//
// Assistant messages may carry a reasoning trace when the model exposes one.
type Message struct {
	ID             string         `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string         `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conv_msgs,priority:1"`
	Role           string         `json:"role"            gorm:"type:varchar(16);not null;check:role IN ('user','assistant','system')"`
	Content        string         `json:"content"         gorm:"type:text;not null"`
	Thinking       string         `json:"thinking,omitempty" gorm:"type:text"`
	CreatedAt      time.Time      `json:"created_at"      gorm:"index:idx_conv_msgs,priority:2"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-"               gorm:"index"`

	// Conversation is the parent dialog. Messages are cascade-deleted
	// if their conversation is removed.
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Case is the structured record of a judicial process. A case may be attached
// to many conversations but belongs to exactly one user.
type Case struct {
	ID         string         `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID     string         `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_cases"`
	Identifier string         `json:"identifier" gorm:"type:varchar(64);not null;index"`
	Parties    string         `json:"parties"    gorm:"type:text"`
	Court      string         `json:"court"      gorm:"type:varchar(255)"`
	Subject    string         `json:"subject"    gorm:"type:text"`
	Facts      string         `json:"facts"      gorm:"type:text"`
	Evidence   string         `json:"evidence"   gorm:"type:text"`
	Requests   string         `json:"requests"   gorm:"type:text"`
	Status     string         `json:"status"     gorm:"type:varchar(64)"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Case.
func (Case) TableName() string { return "cases" }

// CaseDocument is the metadata of an ingested case document. The raw bytes
// live in external storage; this row records what the text extractor produced
// (page count) plus display metadata. The extracted text itself is persisted
// as DocumentChunk rows.
type CaseDocument struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	CaseID    string         `json:"case_id"    gorm:"type:char(36);not null;index"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index"`
	Name      string         `json:"name"       gorm:"type:varchar(255);not null"`
	PageCount int            `json:"page_count" gorm:"not null;default:0"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	Case Case `json:"-" gorm:"foreignKey:CaseID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for CaseDocument.
func (CaseDocument) TableName() string { return "case_documents" }

// DocumentChunk is an overlapping slice of one page of a case document,
// embedded for semantic retrieval. A chunk whose embedding failed is kept
// with an empty vector so text-only fallback search still finds it.
//
// Seq is the chunk index within its page. Chunk boundaries prefer paragraph
// and sentence breaks; consecutive chunks share a fixed overlap window.
type DocumentChunk struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	DocumentID string         `json:"document_id" gorm:"type:char(36);not null;index:idx_doc_chunks,priority:1"`
	CaseID     string         `json:"case_id"     gorm:"type:char(36);not null;index"`
	UserID     string         `json:"user_id"     gorm:"type:varchar(64);not null;index"`
	Page       int            `json:"page"        gorm:"not null"`
	Seq        int            `json:"seq"         gorm:"not null;index:idx_doc_chunks,priority:2"`
	Text       string         `json:"text"        gorm:"type:text;not null"`
	TokenCount int            `json:"token_count" gorm:"not null;default:0"`
	Tag        string         `json:"tag,omitempty" gorm:"type:varchar(128)"`
	Embedding  Vector         `json:"-"           gorm:"type:text"`
	CreatedAt  time.Time      `json:"created_at"`
	DeletedAt  gorm.DeletedAt `json:"-"           gorm:"index"`

	Document CaseDocument `json:"-" gorm:"foreignKey:DocumentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for DocumentChunk.
func (DocumentChunk) TableName() string { return "document_chunks" }

// KnowledgeDoc is user-authored reference material fed verbatim into the
// assembled context (with per-document separators). An optional SourceURL
// marks content mirrored from an external source; such entries are served
// through the expiring reference cache and refreshed on read.
type KnowledgeDoc struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index"`
	Title     string         `json:"title"      gorm:"type:varchar(255);not null"`
	Content   string         `json:"content"    gorm:"type:text;not null"`
	SourceURL string         `json:"source_url,omitempty" gorm:"type:varchar(512)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for KnowledgeDoc.
func (KnowledgeDoc) TableName() string { return "knowledge_docs" }
