package dto

// Action names routable through the dispatcher. Embedded into widget
// callback parameters so a later click routes back into the add-on.
const (
	ActionShowAddOn               = "showAddOn"
	ActionShowAuthorizationCard   = "showAuthorizationCard"
	ActionShowDisconnectInfo      = "showDisconnectInfo"
	ActionDisconnectAccount       = "disconnectAccount"
	ActionSaveCredentials         = "saveCredentials"
	ActionHandleAttachments       = "handleAttachments"
	ActionHandleNotes             = "handleNotes"
	ActionChildNavigate           = "childNavigate"
	ActionAssetNavigate           = "assetNavigate"
	ActionSaveAttachments         = "saveAttachments"
	ActionPushNote                = "pushNote"
	ActionPushNoteWorkspace       = "pushNoteWorkspace"
	ActionPushAttachment          = "pushAttachment"
	ActionPushAttachmentWorkspace = "pushAttachmentWorkspace"
	ActionShowWorkflows           = "showWorkflows"
	ActionExecuteWF               = "executeWF"
	ActionInsertLink              = "insertLink"
)

// ParamAction is the parameter key carrying the action name.
const ParamAction = "action"

// MessageMetadata identifies the currently open message and carries the
// short-lived token that authorizes reading it through the Gmail API.
type MessageMetadata struct {
	AccessToken string `json:"accessToken"`
	MessageID   string `json:"messageId"`
}

// ActionEvent is one user-interaction event delivered by the Gmail
// host. Ephemeral: constructed per dispatch, never persisted.
type ActionEvent struct {
	// Parameters is the string parameter bag embedded in the widget
	// that raised the event. The action name lives under ParamAction.
	Parameters map[string]string `json:"parameters"`
	// FormInputs carries the values of form widgets on the submitting
	// card, possibly multi-valued (attachment toggles).
	FormInputs map[string][]string `json:"formInputs"`
	// MessageMetadata is set for events raised in message context.
	MessageMetadata *MessageMetadata `json:"messageMetadata"`

	// InstallationID scopes settings and tokens. Filled from the
	// verified request token, never from the client payload.
	InstallationID string `json:"-"`
}

// Action returns the action name of the event, empty when absent.
func (e *ActionEvent) Action() string {
	if e.Parameters == nil {
		return ""
	}
	return e.Parameters[ParamAction]
}

// FormInput returns the first value of a form field, empty when unset.
func (e *ActionEvent) FormInput(key string) string {
	values := e.FormInputs[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
