package dms

// Node is one entry in the remote document hierarchy, a folder or a
// leaf document. The id is opaque to the add-on.
type Node struct {
	ID          string `json:"uid"`
	Title       string `json:"title"`
	DocumentURL string `json:"documentURL"`
}

// Document describes a document created by one of the import
// operations. URL and id are used verbatim in confirmation views.
type Document struct {
	ID          string `json:"uid"`
	Title       string `json:"title"`
	DocumentURL string `json:"documentURL"`
}

// WorkflowModel is a workflow definition that can be started on a
// document. Listed, never stored.
type WorkflowModel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Blob is one binary payload submitted to an import operation.
type Blob struct {
	Filename    string
	ContentType string
	Data        []byte
}

type entryList struct {
	Entries []*Node `json:"entries"`
}

type workflowList struct {
	Entries []*WorkflowModel `json:"entries"`
}

// remoteStatus mirrors the error marker the automation API embeds in
// response payloads. A zero Status means the payload carried no marker.
type remoteStatus struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}
