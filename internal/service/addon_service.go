package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"dms-gmail-addon/internal/config"
	"dms-gmail-addon/internal/dto"
	"dms-gmail-addon/internal/pkg/logger"
	"dms-gmail-addon/internal/pkg/serverutils"
	"dms-gmail-addon/internal/view"
	"dms-gmail-addon/pkg/dms"
	"dms-gmail-addon/pkg/gmailmsg"
)

// ClientFactory builds a document server client for one request.
type ClientFactory func(serverURL string, tokens dms.TokenProvider) *dms.Client

// IAddonService holds the named operations reachable through the
// dispatcher and the three context-specific error surfaces.
type IAddonService interface {
	HandlerTable() map[string]HandlerFunc
	ContextualErrorHandler(ctx context.Context, installationID string) ErrorHandler
	UniversalErrorHandler(ctx context.Context, installationID string) ErrorHandler
	ActionErrorHandler(ctx context.Context, installationID string) ErrorHandler
}

type addonService struct {
	settings      ISettingsService
	oauth         IOAuthService
	gmail         *gmailmsg.Client
	clientFactory ClientFactory
	cfg           *config.Config
	logger        logger.ILogger
}

func NewAddonService(
	settings ISettingsService,
	oauth IOAuthService,
	gmail *gmailmsg.Client,
	clientFactory ClientFactory,
	cfg *config.Config,
	log logger.ILogger,
) IAddonService {
	if clientFactory == nil {
		clientFactory = func(serverURL string, tokens dms.TokenProvider) *dms.Client {
			return dms.NewClient(serverURL, tokens, nil)
		}
	}
	return &addonService{
		settings:      settings,
		oauth:         oauth,
		gmail:         gmail,
		clientFactory: clientFactory,
		cfg:           cfg,
		logger:        log,
	}
}

// HandlerTable is the static action-name routing table.
func (s *addonService) HandlerTable() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		dto.ActionShowAddOn:               s.showAddOn,
		dto.ActionShowAuthorizationCard:   s.showAuthorizationCard,
		dto.ActionShowDisconnectInfo:      s.showDisconnectInfo,
		dto.ActionDisconnectAccount:       s.disconnectAccount,
		dto.ActionSaveCredentials:         s.saveCredentials,
		dto.ActionHandleAttachments:       s.handleAttachments,
		dto.ActionHandleNotes:             s.handleNotes,
		dto.ActionChildNavigate:           s.childNavigate,
		dto.ActionAssetNavigate:           s.assetNavigate,
		dto.ActionSaveAttachments:         s.saveAttachments,
		dto.ActionPushNote:                s.pushNote,
		dto.ActionPushNoteWorkspace:       s.pushNoteWorkspace,
		dto.ActionPushAttachment:          s.pushAttachment,
		dto.ActionPushAttachmentWorkspace: s.pushAttachmentWorkspace,
		dto.ActionShowWorkflows:           s.showWorkflows,
		dto.ActionExecuteWF:               s.executeWF,
		dto.ActionInsertLink:              s.insertLink,
	}
}

// clientFor builds the document server client bound to the event's
// installation.
func (s *addonService) clientFor(ctx context.Context, installationID string) (*dms.Client, error) {
	server, err := s.settings.ServerSettings(ctx, installationID)
	if err != nil {
		return nil, err
	}
	return s.clientFactory(server.ServerURL, s.oauth.TokenProvider(ctx, installationID)), nil
}

// ---- views / session ----

func (s *addonService) showAddOn(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error) {
	// No OAuth access yet: show the welcome/credentials card.
	if !s.oauth.HasAccess(ctx, event.InstallationID) {
		return view.CardsResult(view.HomeCard()), nil
	}
	return view.CardsResult(view.ActionChooserCard()), nil
}

func (s *addonService) showAuthorizationCard(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error) {
	url, err := s.oauth.AuthorizationURL(ctx, event.InstallationID)
	if err != nil {
		return nil, err
	}
	return view.PushResult(view.AuthorizationCard(url)), nil
}

func (s *addonService) saveCredentials(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error) {
	req := dto.SaveCredentialsRequest{
		ServerURL:    event.FormInput(view.FieldServerURL),
		ClientID:     event.FormInput(view.FieldClientID),
		ClientSecret: event.FormInput(view.FieldClientSecret),
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	if err := s.settings.SaveServerSettings(ctx, event.InstallationID, &dto.ServerSettings{
		ServerURL: strings.TrimRight(req.ServerURL, "/"),
	}); err != nil {
		return nil, err
	}
	if err := s.settings.SaveCredentials(ctx, event.InstallationID, &dto.Credentials{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
	}); err != nil {
		return nil, err
	}
	return s.showAuthorizationCard(ctx, event)
}

func (s *addonService) showDisconnectInfo(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error) {
	return view.UniversalResult(view.DisconnectInfoCard()), nil
}

// disconnectAccount tears the session down: access token, server URL
// and credentials are all cleared.
func (s *addonService) disconnectAccount(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error) {
	if err := s.oauth.Clear(ctx, event.InstallationID); err != nil {
		return nil, err
	}
	if err := s.settings.Disconnect(ctx, event.InstallationID); err != nil {
		return nil, err
	}
	return view.UniversalResult(view.DisconnectInfoCard()), nil
}

// ---- navigation ----

func (s *addonService) handleAttachments(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error) {
	if event.MessageMetadata == nil {
		return nil, errors.New("no message context on event")
	}
	msg, err := s.gmail.GetMessage(ctx, event.MessageMetadata.AccessToken, event.MessageMetadata.MessageID)
	if err != nil {
		return nil, err
	}
	if len(msg.Attachments) == 0 {
		return view.PushResult(view.SimpleCard("Oops!", "There is no attachment to this email. Please select another one.")), nil
	}
	return view.PushResult(view.AttachmentPickerCard(msg, event.MessageMetadata.AccessToken)), nil
}

func (s *addonService) handleNotes(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error) {
	if event.MessageMetadata == nil {
		return nil, errors.New("no message context on event")
	}
	carry := map[string]string{
		"messageId":   event.MessageMetadata.MessageID,
		"accessToken": event.MessageMetadata.AccessToken,
	}
	return s.browseRoot(ctx, event.InstallationID, "note", carry)
}

// browseRoot opens the folder chooser at the top of the hierarchy.
func (s *addonService) browseRoot(ctx context.Context, installationID, mode string, carry map[string]string) (*dto.RenderResult, error) {
	client, err := s.clientFor(ctx, installationID)
	if err != nil {
		return nil, err
	}
	root, err := client.Root(ctx)
	if err != nil {
		return nil, err
	}
	children, err := client.Children(ctx, root.ID)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return view.PushResult(view.NothingHereCard()), nil
	}
	return view.PushResult(view.ChildrenCard(children, mode, carry)), nil
}

func (s *addonService) childNavigate(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error) {
	var params dto.NavigateParams
	if err := serverutils.DecodeParams(event.Parameters, &params); err != nil {
		return nil, err
	}
	client, err := s.clientFor(ctx, event.InstallationID)
	if err != nil {
		return nil, err
	}
	children, err := client.Children(ctx, params.ParentID)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return view.PushResult(view.NothingHereCard()), nil
	}

	carry := map[string]string{}
	if params.MessageID != "" {
		carry["messageId"] = params.MessageID
	}
	if params.AccessToken != "" {
		carry["accessToken"] = params.AccessToken
	}
	if params.Indexes != "" {
		carry["indexes"] = params.Indexes
	}
	return view.PushResult(view.ChildrenCard(children, params.Mode, carry)), nil
}

func (s *addonService) assetNavigate(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error) {
	query := event.FormInput(view.FieldSearchQuery)
	if query == "" {
		// First entry: show the search form.
		return view.PushResult(view.AssetSearchCard()), nil
	}
	client, err := s.clientFor(ctx, event.InstallationID)
	if err != nil {
		return nil, err
	}
	assets, err := client.SearchAssets(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return view.PushResult(view.SimpleCard("Nothing here!", "No documents match your search.")), nil
	}
	return view.PushResult(view.AssetResultsCard(assets)), nil
}

// ---- selection ----

// saveAttachments converts the picker's toggle inputs into a selection
// index list and threads it, with the message context, to the folder
// chooser. The original event cannot be re-delivered, so everything
// the push step needs is captured as parameters.
func (s *addonService) saveAttachments(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error) {
	var params dto.SaveAttachmentsParams
	if err := serverutils.DecodeParams(event.Parameters, &params); err != nil {
		return nil, err
	}

	indexes := selectedIndexes(event.FormInputs)
	if len(indexes) == 0 {
		return view.PushResult(view.SimpleCard("Oops!", "Please select at least one attachment.")), nil
	}

	carry := map[string]string{
		"messageId":   params.MessageID,
		"accessToken": params.AccessToken,
		"indexes":     joinIndexes(indexes),
	}
	return s.browseRoot(ctx, event.InstallationID, "attachment", carry)
}

// selectedIndexes extracts the indexes of the toggles switched on.
func selectedIndexes(formInputs map[string][]string) []int {
	var indexes []int
	for key, values := range formInputs {
		if !strings.HasPrefix(key, view.AttachmentTogglePrefix) {
			continue
		}
		if len(values) == 0 || values[0] != "on" {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(key, view.AttachmentTogglePrefix))
		if err != nil {
			continue
		}
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	return indexes
}

func joinIndexes(indexes []int) string {
	parts := make([]string, len(indexes))
	for i, idx := range indexes {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ",")
}

// ---- submission ----

func (s *addonService) pushNote(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error) {
	var params dto.PushNoteParams
	if err := serverutils.DecodeParams(event.Parameters, &params); err != nil {
		return nil, err
	}
	if params.ParentID == "" {
		return nil, errors.New("pushNote: missing parent id")
	}
	msg, err := s.gmail.GetMessage(ctx, params.AccessToken, params.MessageID)
	if err != nil {
		return nil, err
	}
	client, err := s.clientFor(ctx, event.InstallationID)
	if err != nil {
		return nil, err
	}
	doc, err := client.CreateNote(ctx, params.ParentID, msg.BodyHTML, msg.From)
	if err != nil {
		return nil, err
	}
	return view.PushResult(view.ConfirmationCard("Yeehaa! Note created", doc)), nil
}

func (s *addonService) pushNoteWorkspace(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error) {
	var params dto.PushNoteParams
	if err := serverutils.DecodeParams(event.Parameters, &params); err != nil {
		return nil, err
	}
	msg, err := s.gmail.GetMessage(ctx, params.AccessToken, params.MessageID)
	if err != nil {
		return nil, err
	}
	client, err := s.clientFor(ctx, event.InstallationID)
	if err != nil {
		return nil, err
	}
	doc, err := client.CreateNoteInWorkspace(ctx, msg.BodyHTML, msg.From)
	if err != nil {
		return nil, err
	}
	return view.PushResult(view.ConfirmationCard("Yeehaa! Note created", doc)), nil
}

func (s *addonService) pushAttachment(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error) {
	var params dto.PushAttachmentParams
	if err := serverutils.DecodeParams(event.Parameters, &params); err != nil {
		return nil, err
	}
	if params.ParentID == "" {
		return nil, errors.New("pushAttachment: missing parent id")
	}
	blob, err := s.firstSelectedBlob(ctx, &params)
	if err != nil {
		return nil, err
	}
	client, err := s.clientFor(ctx, event.InstallationID)
	if err != nil {
		return nil, err
	}
	doc, err := client.CreateAttachment(ctx, params.ParentID, *blob)
	if err != nil {
		return nil, err
	}
	return view.PushResult(view.ConfirmationCard("Yeehaa! Attachment pushed", doc)), nil
}

func (s *addonService) pushAttachmentWorkspace(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error) {
	var params dto.PushAttachmentParams
	if err := serverutils.DecodeParams(event.Parameters, &params); err != nil {
		return nil, err
	}
	blob, err := s.firstSelectedBlob(ctx, &params)
	if err != nil {
		return nil, err
	}
	client, err := s.clientFor(ctx, event.InstallationID)
	if err != nil {
		return nil, err
	}
	doc, err := client.CreateAttachmentInWorkspace(ctx, *blob)
	if err != nil {
		return nil, err
	}
	return view.PushResult(view.ConfirmationCard("Yeehaa! Attachment pushed", doc)), nil
}

// firstSelectedBlob fetches the first selected attachment only. The
// import operation takes a single blob per call, so the rest of the
// selection is ignored for now.
// TODO: submit the remaining selected attachments once the import
// operation accepts a blob list.
func (s *addonService) firstSelectedBlob(ctx context.Context, params *dto.PushAttachmentParams) (*dms.Blob, error) {
	first := strings.Split(params.Indexes, ",")[0]
	index, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return nil, fmt.Errorf("bad attachment selection %q: %w", params.Indexes, err)
	}
	att, err := s.gmail.GetAttachment(ctx, params.AccessToken, params.MessageID, index)
	if err != nil {
		return nil, err
	}
	return &dms.Blob{
		Filename:    att.Filename,
		ContentType: att.MimeType,
		Data:        att.Data,
	}, nil
}

// ---- workflows ----

func (s *addonService) showWorkflows(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error) {
	var params dto.ShowWorkflowsParams
	if err := serverutils.DecodeParams(event.Parameters, &params); err != nil {
		return nil, err
	}
	client, err := s.clientFor(ctx, event.InstallationID)
	if err != nil {
		return nil, err
	}
	models, err := client.WorkflowModels(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return view.PushResult(view.SimpleCard("Nothing here!", "No workflows are available.")), nil
	}
	return view.PushResult(view.WorkflowCard(params.DocID, models)), nil
}

func (s *addonService) executeWF(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error) {
	var params dto.ExecuteWFParams
	if err := serverutils.DecodeParams(event.Parameters, &params); err != nil {
		return nil, err
	}
	client, err := s.clientFor(ctx, event.InstallationID)
	if err != nil {
		return nil, err
	}
	if err := client.StartWorkflow(ctx, params.DocID, params.WorkflowID); err != nil {
		return nil, err
	}
	return view.PushResult(view.SimpleCard("Yeehaa!", "Workflow started on your document.")), nil
}

// ---- draft ----

func (s *addonService) insertLink(ctx context.Context, event *dto.ActionEvent) (*dto.RenderResult, error) {
	var params dto.InsertLinkParams
	if err := serverutils.DecodeParams(event.Parameters, &params); err != nil {
		return nil, err
	}
	title := params.Title
	if title == "" {
		title = params.URL
	}
	link := fmt.Sprintf(`<a href=%q>%s</a>`, params.URL, html.EscapeString(title))
	return view.InsertHTMLResult(link), nil
}

// ---- error surfaces ----

// errorCard renders a failure; the detail section is gated behind the
// configured debug flag.
func (s *addonService) errorCard(err error) *dto.Card {
	return view.ErrorCard(err, s.cfg.App.Debug)
}

// authorizationCardFor resolves the authorization URL for the
// re-authorization redirect. When even that fails, fall back to the
// plain error card.
func (s *addonService) authorizationCardFor(ctx context.Context, installationID string, cause error) *dto.Card {
	url, err := s.oauth.AuthorizationURL(ctx, installationID)
	if err != nil {
		s.logger.Error("addon", "authorization url unavailable", map[string]interface{}{
			"installation_id": installationID,
			"error":           err.Error(),
		})
		return s.errorCard(cause)
	}
	return view.AuthorizationCard(url)
}

// ContextualErrorHandler surfaces failures of the contextual add-on
// load as a bare card.
func (s *addonService) ContextualErrorHandler(ctx context.Context, installationID string) ErrorHandler {
	return func(err error) *dto.RenderResult {
		if dms.IsAuthorizationRequired(err) {
			return view.CardsResult(s.authorizationCardFor(ctx, installationID, err))
		}
		return view.CardsResult(s.errorCard(err))
	}
}

// UniversalErrorHandler wraps the error card in the universal action
// envelope.
func (s *addonService) UniversalErrorHandler(ctx context.Context, installationID string) ErrorHandler {
	return func(err error) *dto.RenderResult {
		if dms.IsAuthorizationRequired(err) {
			return view.UniversalResult(s.authorizationCardFor(ctx, installationID, err))
		}
		return view.UniversalResult(s.errorCard(err))
	}
}

// ActionErrorHandler answers a failed secondary action with a pushed
// error card, or hands the host the authorization URL when the user
// must re-authorize.
func (s *addonService) ActionErrorHandler(ctx context.Context, installationID string) ErrorHandler {
	return func(err error) *dto.RenderResult {
		if dms.IsAuthorizationRequired(err) {
			url, aerr := s.oauth.AuthorizationURL(ctx, installationID)
			if aerr == nil {
				return view.AuthorizationResult(url)
			}
			s.logger.Error("addon", "authorization url unavailable", map[string]interface{}{
				"installation_id": installationID,
				"error":           aerr.Error(),
			})
		}
		return view.PushResult(s.errorCard(err))
	}
}
