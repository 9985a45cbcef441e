package dms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

const treeChildrenProvider = "tree_children"
const assetSearchProvider = "default_search"

// badCredentialsMessage is the marker the server puts in its error
// payload when the presented token maps to revoked or wrong credentials.
// It can arrive under any HTTP status.
const badCredentialsMessage = "Bad credentials"

// TokenProvider supplies the bearer value for authenticated calls. The
// client never reads or writes token storage itself.
type TokenProvider interface {
	HasAccess() bool
	AccessToken() (string, error)
}

// Client is an authenticated wrapper around the document server's
// automation HTTP API. One method per remote capability; no retries,
// every transport failure is fatal for the current call.
type Client struct {
	apiEndpoint string
	tokens      TokenProvider
	httpClient  *http.Client
}

// NewClient builds a client rooted at serverURL's versioned API base.
// A nil httpClient falls back to http.DefaultClient.
func NewClient(serverURL string, tokens TokenProvider, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		apiEndpoint: strings.TrimRight(serverURL, "/") + "/api/v1",
		tokens:      tokens,
		httpClient:  httpClient,
	}
}

// Root fetches the base node of the document hierarchy.
func (c *Client) Root(ctx context.Context) (*Node, error) {
	var root Node
	if err := c.do(ctx, http.MethodGet, "/path/?", "", nil, &root); err != nil {
		return nil, err
	}
	return &root, nil
}

// Children lists the child nodes of the given parent. The page
// provider paginates server-side; the add-on consumes a single page.
func (c *Client) Children(ctx context.Context, parentID string) ([]*Node, error) {
	path := fmt.Sprintf("/search/pp/%s/execute?queryParams=%s", treeChildrenProvider, url.QueryEscape(parentID))
	var list entryList
	if err := c.do(ctx, http.MethodGet, path, "", nil, &list); err != nil {
		return nil, err
	}
	return list.Entries, nil
}

// SearchAssets runs a free-text search over the repository, used by the
// document picker.
func (c *Client) SearchAssets(ctx context.Context, query string) ([]*Node, error) {
	path := fmt.Sprintf("/search/pp/%s/execute?queryParams=%s", assetSearchProvider, url.QueryEscape(query))
	var list entryList
	if err := c.do(ctx, http.MethodGet, path, "", nil, &list); err != nil {
		return nil, err
	}
	return list.Entries, nil
}

// CreateNote creates a Note document holding the email body under the
// given parent.
func (c *Client) CreateNote(ctx context.Context, parentID, htmlBody, sender string) (*Document, error) {
	payload := map[string]interface{}{
		"input": parentID,
		"params": map[string]interface{}{
			"type": "Note",
			"name": noteName(sender),
			"properties": map[string]string{
				"note:note":      htmlBody,
				"note:mime_type": "text/html",
				"dc:source":      sender,
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := c.do(ctx, http.MethodPost, "/automation/Document.Create", "application/json", bytes.NewReader(body), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// CreateNoteInWorkspace creates the note in the caller's personal
// workspace instead of a chosen parent.
func (c *Client) CreateNoteInWorkspace(ctx context.Context, htmlBody, sender string) (*Document, error) {
	blob := Blob{
		Filename:    noteName(sender) + ".html",
		ContentType: "text/html",
		Data:        []byte(htmlBody),
	}
	return c.importBlob(ctx, "/automation/UserWorkspace.CreateDocumentFromBlob", nil, blob)
}

// CreateAttachment imports one file blob under the given parent.
// Exactly one blob per call.
func (c *Client) CreateAttachment(ctx context.Context, parentID string, blob Blob) (*Document, error) {
	request := map[string]interface{}{
		"context": map[string]string{"currentDocument": parentID},
	}
	return c.importBlob(ctx, "/automation/FileManager.Import", request, blob)
}

// CreateAttachmentInWorkspace imports one file blob into the caller's
// personal workspace.
func (c *Client) CreateAttachmentInWorkspace(ctx context.Context, blob Blob) (*Document, error) {
	return c.importBlob(ctx, "/automation/UserWorkspace.CreateDocumentFromBlob", nil, blob)
}

// WorkflowModels lists the workflow definitions available to the user.
func (c *Client) WorkflowModels(ctx context.Context) ([]*WorkflowModel, error) {
	var list workflowList
	if err := c.do(ctx, http.MethodGet, "/workflowModel", "", nil, &list); err != nil {
		return nil, err
	}
	return list.Entries, nil
}

// StartWorkflow starts the given workflow model on a document.
// Fire-and-confirm: success carries no payload of interest.
func (c *Client) StartWorkflow(ctx context.Context, docID, workflowID string) error {
	payload := map[string]string{
		"entity-type":       "workflow",
		"workflowModelName": workflowID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/id/%s/@workflow", url.PathEscape(docID))
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(body), nil)
}

// importBlob posts one blob to an automation import operation as a
// multipart request: a JSON "request" part followed by the file part.
func (c *Client) importBlob(ctx context.Context, opPath string, request map[string]interface{}, blob Blob) (*Document, error) {
	if request == nil {
		request = map[string]interface{}{}
	}
	requestJSON, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	reqHeader := textproto.MIMEHeader{}
	reqHeader.Set("Content-Disposition", `form-data; name="request"`)
	reqHeader.Set("Content-Type", "application/json")
	reqPart, err := writer.CreatePart(reqHeader)
	if err != nil {
		return nil, err
	}
	if _, err := reqPart.Write(requestJSON); err != nil {
		return nil, err
	}

	fileHeader := textproto.MIMEHeader{}
	fileHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="input"; filename=%q`, blob.Filename))
	if blob.ContentType != "" {
		fileHeader.Set("Content-Type", blob.ContentType)
	}
	filePart, err := writer.CreatePart(fileHeader)
	if err != nil {
		return nil, err
	}
	if _, err := filePart.Write(blob.Data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	var doc Document
	if err := c.do(ctx, http.MethodPost, opPath, writer.FormDataContentType(), &buf, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// do runs one authenticated request. The authorization check happens
// before anything touches the network.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	if !c.tokens.HasAccess() {
		return ErrAuthorizationRequired
	}
	token, err := c.tokens.AccessToken()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiEndpoint+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dms: request %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("dms: read response %s %s: %w", method, path, err)
	}

	if err := c.checkRemoteError(res.StatusCode, resBody); err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(resBody, out); err != nil {
			return fmt.Errorf("dms: decode response %s %s: %w", method, path, err)
		}
	}
	return nil
}

// checkRemoteError converts server-marked failures into typed errors.
// The automation API embeds its error status in the payload even when
// the HTTP layer reports 200, and reports bad credentials under
// arbitrary statuses.
func (c *Client) checkRemoteError(httpStatus int, body []byte) error {
	var marker remoteStatus
	if err := json.Unmarshal(body, &marker); err == nil {
		if marker.Message == badCredentialsMessage {
			return ErrAuthorizationRequired
		}
		if marker.Status >= 400 {
			return &RemoteError{Status: marker.Status, Message: marker.Message}
		}
	}
	if httpStatus >= 400 {
		return &RemoteError{Status: httpStatus, Message: strings.TrimSpace(string(body))}
	}
	return nil
}

func noteName(sender string) string {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return "email-note"
	}
	return "email-note-from-" + sanitizeName(sender)
}

func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_', r == '@':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

// IsAuthorizationRequired reports whether err signals that the user
// must (re-)authorize before the operation can succeed.
func IsAuthorizationRequired(err error) bool {
	return errors.Is(err, ErrAuthorizationRequired)
}
