package gmailmsg

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultBaseURL = "https://gmail.googleapis.com/gmail/v1"

// Attachment is one binary attachment of a message.
type Attachment struct {
	Filename string
	MimeType string
	Data     []byte
}

// AttachmentRef points at an attachment of a message without carrying
// its bytes. Index is the short-lived selection token threaded through
// the attachment picker form.
type AttachmentRef struct {
	Index        int
	Filename     string
	MimeType     string
	AttachmentID string
}

// Message is the part of a Gmail message the add-on consumes.
type Message struct {
	ID          string
	Subject     string
	From        string
	Date        string
	BodyHTML    string
	Attachments []AttachmentRef
}

// Client reads messages and attachments through the Gmail REST API
// using the per-event message access token handed over by the host.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Gmail accessor. Empty baseURL selects the public
// API endpoint; a nil httpClient falls back to http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type messagePart struct {
	PartID   string `json:"partId"`
	MimeType string `json:"mimeType"`
	Filename string `json:"filename"`
	Headers  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"headers"`
	Body struct {
		AttachmentID string `json:"attachmentId"`
		Data         string `json:"data"`
	} `json:"body"`
	Parts []*messagePart `json:"parts"`
}

type messageResponse struct {
	ID      string       `json:"id"`
	Payload *messagePart `json:"payload"`
}

type attachmentResponse struct {
	Data string `json:"data"`
}

// GetMessage fetches one message and flattens its MIME tree into the
// subject, sender, date, html body and attachment references.
func (c *Client) GetMessage(ctx context.Context, accessToken, messageID string) (*Message, error) {
	path := fmt.Sprintf("/users/me/messages/%s?format=full", url.PathEscape(messageID))
	var res messageResponse
	if err := c.get(ctx, accessToken, path, &res); err != nil {
		return nil, err
	}
	if res.Payload == nil {
		return nil, fmt.Errorf("gmailmsg: message %s has no payload", messageID)
	}

	msg := &Message{ID: res.ID}
	for _, h := range res.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			msg.Subject = h.Value
		case "from":
			msg.From = h.Value
		case "date":
			msg.Date = h.Value
		}
	}
	collectParts(res.Payload, msg)
	return msg, nil
}

// GetAttachment fetches the bytes of the attachment at the given
// selection index of a message.
func (c *Client) GetAttachment(ctx context.Context, accessToken, messageID string, index int) (*Attachment, error) {
	msg, err := c.GetMessage(ctx, accessToken, messageID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(msg.Attachments) {
		return nil, fmt.Errorf("gmailmsg: message %s has no attachment at index %d", messageID, index)
	}
	ref := msg.Attachments[index]

	path := fmt.Sprintf("/users/me/messages/%s/attachments/%s", url.PathEscape(messageID), url.PathEscape(ref.AttachmentID))
	var res attachmentResponse
	if err := c.get(ctx, accessToken, path, &res); err != nil {
		return nil, err
	}
	data, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(res.Data)
	if err != nil {
		return nil, fmt.Errorf("gmailmsg: decode attachment %s: %w", ref.AttachmentID, err)
	}
	return &Attachment{
		Filename: ref.Filename,
		MimeType: ref.MimeType,
		Data:     data,
	}, nil
}

func (c *Client) get(ctx context.Context, accessToken, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf(
			"gmailmsg: status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}
	return json.Unmarshal(resBody, out)
}

// collectParts walks the MIME tree, recording the first html body and
// every named part as an attachment reference.
func collectParts(part *messagePart, msg *Message) {
	if part.Filename != "" && part.Body.AttachmentID != "" {
		msg.Attachments = append(msg.Attachments, AttachmentRef{
			Index:        len(msg.Attachments),
			Filename:     part.Filename,
			MimeType:     part.MimeType,
			AttachmentID: part.Body.AttachmentID,
		})
	} else if part.MimeType == "text/html" && msg.BodyHTML == "" && part.Body.Data != "" {
		if data, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(part.Body.Data); err == nil {
			msg.BodyHTML = string(data)
		}
	}
	for _, p := range part.Parts {
		collectParts(p, msg)
	}
}
