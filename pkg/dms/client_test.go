package dms

import (
	"context"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	access bool
	token  string
	err    error
}

func (f *fakeTokens) HasAccess() bool {
	return f.access
}

func (f *fakeTokens) AccessToken() (string, error) {
	return f.token, f.err
}

func TestClientUnauthorizedBeforeNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &fakeTokens{access: false}, srv.Client())
	ctx := context.Background()

	_, err := client.Children(ctx, "parent-1")
	assert.ErrorIs(t, err, ErrAuthorizationRequired)

	_, err = client.SearchAssets(ctx, "contracts")
	assert.ErrorIs(t, err, ErrAuthorizationRequired)

	_, err = client.Root(ctx)
	assert.ErrorIs(t, err, ErrAuthorizationRequired)

	assert.Equal(t, 0, calls, "no network call may happen while unauthorized")
}

func TestClientEmbeddedRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The automation API reports failures inside a 200 payload.
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"entity-type":"exception","status":500,"message":"Internal Server Error"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &fakeTokens{access: true, token: "tok"}, srv.Client())

	_, err := client.Children(context.Background(), "parent-1")
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 500, remoteErr.Status)
	assert.Equal(t, "Internal Server Error", remoteErr.Message)
}

func TestClientBadCredentials(t *testing.T) {
	statuses := []int{http.StatusOK, http.StatusUnauthorized, http.StatusInternalServerError}
	for _, status := range statuses {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(`{"status":401,"message":"Bad credentials"}`))
		}))

		client := NewClient(srv.URL, &fakeTokens{access: true, token: "tok"}, srv.Client())
		_, err := client.Root(context.Background())
		assert.ErrorIs(t, err, ErrAuthorizationRequired, "http status %d", status)
		srv.Close()
	}
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := NewClient(srv.URL, &fakeTokens{access: true, token: "tok"}, nil)
	_, err := client.Root(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrAuthorizationRequired))
}

func TestChildren(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/search/pp/tree_children/execute", r.URL.Path)
		assert.Equal(t, "folder-7", r.URL.Query().Get("queryParams"))
		w.Write([]byte(`{"entries":[
			{"uid":"child-1","title":"Invoices","documentURL":"https://dms/doc/child-1"},
			{"uid":"child-2","title":"Contracts","documentURL":"https://dms/doc/child-2"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &fakeTokens{access: true, token: "tok-123"}, srv.Client())
	children, err := client.Children(context.Background(), "folder-7")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "child-1", children[0].ID)
	assert.Equal(t, "Contracts", children[1].Title)
}

func TestChildrenEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"entries":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &fakeTokens{access: true, token: "tok"}, srv.Client())
	children, err := client.Children(context.Background(), "folder-7")
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestCreateAttachment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/automation/FileManager.Import", r.URL.Path)

		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		require.Equal(t, "multipart/form-data", mediaType)

		reader := multipart.NewReader(r.Body, params["boundary"])
		form, err := reader.ReadForm(1 << 20)
		require.NoError(t, err)

		require.Contains(t, form.Value["request"][0], `"currentDocument":"folder-7"`)
		file := form.File["input"][0]
		assert.Equal(t, "report.pdf", file.Filename)
		assert.Equal(t, "application/pdf", file.Header.Get("Content-Type"))

		w.Write([]byte(`{"uid":"doc-42","title":"report.pdf","documentURL":"https://dms/doc/doc-42"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &fakeTokens{access: true, token: "tok"}, srv.Client())
	doc, err := client.CreateAttachment(context.Background(), "folder-7", Blob{
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4"),
	})
	require.NoError(t, err)

	// The descriptor is used verbatim downstream.
	assert.Equal(t, "doc-42", doc.ID)
	assert.Equal(t, "https://dms/doc/doc-42", doc.DocumentURL)
}

func TestCreateNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/automation/Document.Create", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"uid":"note-1","title":"email-note","documentURL":"https://dms/doc/note-1"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &fakeTokens{access: true, token: "tok"}, srv.Client())
	doc, err := client.CreateNote(context.Background(), "folder-1", "<p>hello</p>", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "note-1", doc.ID)
}

func TestStartWorkflow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/id/doc-42/@workflow", r.URL.Path)
		w.Write([]byte(`{"entity-type":"workflow"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &fakeTokens{access: true, token: "tok"}, srv.Client())
	err := client.StartWorkflow(context.Background(), "doc-42", "SerialDocumentReview")
	require.NoError(t, err)
}

func TestWorkflowModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/workflowModel", r.URL.Path)
		w.Write([]byte(`{"entries":[{"id":"wf-1","name":"Serial review"},{"id":"wf-2","name":"Parallel review"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &fakeTokens{access: true, token: "tok"}, srv.Client())
	models, err := client.WorkflowModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "Serial review", models[0].Name)
}
