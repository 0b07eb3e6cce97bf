package commonModels

// Chunk is a contiguous span of a document's cleaned text plus its citation metadata.
type Chunk struct {
	DocumentId string `json:"document_id"`
	ChunkId    int    `json:"chunk_id"`
	PageNumber int    `json:"page_number"`
	Source     string `json:"source"`
	ChunkText  string `json:"chunk_text"`
}

// Page is raw extracted text. Number is 0 when the source has no page concept.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var URL DocType = "URL"

type IngestRequest struct {
	DocumentId  string
	Source      string
	ContentType DocType
	Pages       []Page
}

type IngestResult struct {
	DocumentId     string `json:"document_id"`
	Summary        string `json:"summary"`
	EmbeddedChunks int    `json:"embedded_chunks"`
	Status         string `json:"status"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type SourceRef struct {
	PageNumber int    `json:"page_number"`
	ChunkId    int    `json:"chunk_id"`
	Source     string `json:"source"`
}

type Answer struct {
	Answer      string      `json:"answer"`
	Sources     []SourceRef `json:"sources"`
	UsedContext []string    `json:"used_context"`
}
