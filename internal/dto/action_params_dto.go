package dto

// Typed parameter structs decoded from the string parameter bag at the
// dispatch boundary, one closed struct per parameterized action.

// NavigateParams parameterizes childNavigate.
type NavigateParams struct {
	ParentID string `param:"id" validate:"required"`
	// Submission context threaded through navigation so the eventual
	// "save here" click still knows what to push.
	Mode        string `param:"mode" validate:"omitempty,oneof=note attachment"`
	MessageID   string `param:"messageId"`
	AccessToken string `param:"accessToken"`
	Indexes     string `param:"indexes"`
}

// SaveAttachmentsParams parameterizes saveAttachments. The toggle
// states themselves arrive as form inputs.
type SaveAttachmentsParams struct {
	MessageID   string `param:"messageId" validate:"required"`
	AccessToken string `param:"accessToken" validate:"required"`
}

// PushNoteParams parameterizes pushNote and pushNoteWorkspace; the
// workspace variant needs no parent.
type PushNoteParams struct {
	ParentID    string `param:"id"`
	MessageID   string `param:"messageId" validate:"required"`
	AccessToken string `param:"accessToken" validate:"required"`
}

// PushAttachmentParams parameterizes pushAttachment and its workspace
// variant. Indexes is the serialized selection produced by
// saveAttachments (comma-separated attachment indexes).
type PushAttachmentParams struct {
	ParentID    string `param:"id"`
	MessageID   string `param:"messageId" validate:"required"`
	AccessToken string `param:"accessToken" validate:"required"`
	Indexes     string `param:"indexes" validate:"required"`
}

// ShowWorkflowsParams parameterizes showWorkflows.
type ShowWorkflowsParams struct {
	DocID string `param:"docId" validate:"required"`
}

// ExecuteWFParams parameterizes executeWF.
type ExecuteWFParams struct {
	DocID      string `param:"docId" validate:"required"`
	WorkflowID string `param:"workflowId" validate:"required"`
}

// InsertLinkParams parameterizes insertLink.
type InsertLinkParams struct {
	URL   string `param:"url" validate:"required,url"`
	Title string `param:"title"`
}

// SaveCredentialsRequest is the credentials form of the home card.
type SaveCredentialsRequest struct {
	ServerURL    string `json:"serverUrl" validate:"required,url"`
	ClientID     string `json:"clientId" validate:"required"`
	ClientSecret string `json:"clientSecret" validate:"required"`
}
