package dto

// Renderable card descriptors returned to the Gmail host. Structure
// follows the host's card JSON; only the widgets the add-on uses are
// modeled.

type CardHeader struct {
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// FormAction wires a widget click back into the dispatcher: the
// function is always the dispatch endpoint, the parameters carry the
// action name plus its bag.
type FormAction struct {
	Function   string            `json:"function"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

type OpenLink struct {
	URL string `json:"url"`
}

type OnClick struct {
	Action   *FormAction `json:"action,omitempty"`
	OpenLink *OpenLink   `json:"openLink,omitempty"`
}

type TextParagraph struct {
	Text string `json:"text"`
}

type DecoratedText struct {
	TopLabel string   `json:"topLabel,omitempty"`
	Text     string   `json:"text"`
	Icon     string   `json:"icon,omitempty"`
	IconURL  string   `json:"iconUrl,omitempty"`
	OnClick  *OnClick `json:"onClick,omitempty"`
}

type TextInput struct {
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
	Hint  string `json:"hint,omitempty"`
}

type SwitchControl struct {
	Name     string `json:"name"`
	Label    string `json:"label,omitempty"`
	Value    string `json:"value,omitempty"`
	Selected bool   `json:"selected,omitempty"`
}

type TextButton struct {
	Text    string   `json:"text"`
	OnClick *OnClick `json:"onClick,omitempty"`
}

type ButtonList struct {
	Buttons []*TextButton `json:"buttons"`
}

// Widget is a union: exactly one field is set.
type Widget struct {
	TextParagraph *TextParagraph `json:"textParagraph,omitempty"`
	DecoratedText *DecoratedText `json:"decoratedText,omitempty"`
	TextInput     *TextInput     `json:"textInput,omitempty"`
	SwitchControl *SwitchControl `json:"switchControl,omitempty"`
	ButtonList    *ButtonList    `json:"buttonList,omitempty"`
}

type CardSection struct {
	Header  string    `json:"header,omitempty"`
	Widgets []*Widget `json:"widgets"`
}

type Card struct {
	Header   *CardHeader    `json:"header,omitempty"`
	Sections []*CardSection `json:"sections"`
}

// Navigation pushes a card onto the host's card stack.
type Navigation struct {
	PushCard *Card `json:"pushCard,omitempty"`
}

// UpdateDraft asks the host to insert content into the open draft.
type UpdateDraft struct {
	InsertHTML string `json:"insertHtml,omitempty"`
}

// ActionResponse answers a secondary (widget click) action.
type ActionResponse struct {
	Navigations []*Navigation `json:"navigations,omitempty"`
	OpenLink    *OpenLink     `json:"openLink,omitempty"`
	UpdateDraft *UpdateDraft  `json:"updateDraft,omitempty"`
	// AuthorizationURL set instead of a navigation when the host must
	// run the re-authorization flow.
	AuthorizationURL string `json:"authorizationUrl,omitempty"`
}

// UniversalActionResponse answers a menu (universal) action.
type UniversalActionResponse struct {
	Cards []*Card `json:"cards"`
}

// RenderResult is the tagged union a dispatched handler returns:
// contextual card list, universal envelope, or secondary action
// response. Exactly one field is set.
type RenderResult struct {
	Cards           []*Card                  `json:"cards,omitempty"`
	UniversalAction *UniversalActionResponse `json:"universalAction,omitempty"`
	Action          *ActionResponse          `json:"action,omitempty"`
}
