package view

import (
	"fmt"
	"strconv"

	"dms-gmail-addon/internal/dto"
	"dms-gmail-addon/pkg/dms"
	"dms-gmail-addon/pkg/gmailmsg"
)

// dispatchFunction is the callback entry point the host invokes for
// every widget click; the action name travels in the parameter bag.
const dispatchFunction = "dispatchAction"

const logoURL = "https://storage.googleapis.com/dms-addon-assets/logo.png"

// Form field names of the credentials form on the home card.
const (
	FieldServerURL    = "serverUrl"
	FieldClientID     = "clientId"
	FieldClientSecret = "clientSecret"
	FieldSearchQuery  = "query"
)

// AttachmentTogglePrefix prefixes the switch field of each attachment
// on the picker card; the suffix is the attachment index.
const AttachmentTogglePrefix = "attachment_"

// action builds an OnClick that routes back through the dispatcher.
func action(name string, params map[string]string) *dto.OnClick {
	merged := map[string]string{dto.ParamAction: name}
	for k, v := range params {
		merged[k] = v
	}
	return &dto.OnClick{
		Action: &dto.FormAction{
			Function:   dispatchFunction,
			Parameters: merged,
		},
	}
}

func openLink(url string) *dto.OnClick {
	return &dto.OnClick{OpenLink: &dto.OpenLink{URL: url}}
}

// HomeCard is the welcome view shown before the OAuth client is set:
// feature blurb plus the credentials form.
func HomeCard() *dto.Card {
	logo := &dto.CardSection{
		Widgets: []*dto.Widget{{
			DecoratedText: &dto.DecoratedText{
				TopLabel: "Document server for Gmail",
				Text:     "<b>Push emails into your document repository</b>",
				IconURL:  logoURL,
			},
		}},
	}
	welcome := &dto.CardSection{
		Widgets: []*dto.Widget{
			{DecoratedText: &dto.DecoratedText{Icon: "EMAIL", Text: "Push attachments from emails to the repository"}},
			{DecoratedText: &dto.DecoratedText{Icon: "DESCRIPTION", Text: "Create notes from emails"}},
			{DecoratedText: &dto.DecoratedText{Icon: "INVITE", Text: "Start workflows on pushed documents"}},
			{DecoratedText: &dto.DecoratedText{Icon: "OFFER", Text: "Browse and link any document into emails"}},
		},
	}
	form := &dto.CardSection{
		Widgets: []*dto.Widget{
			{TextParagraph: &dto.TextParagraph{Text: "Please fill information to access the server:"}},
			{TextInput: &dto.TextInput{Name: FieldServerURL, Label: "Server URL", Hint: "https://client.dms.example.com/server"}},
			{TextInput: &dto.TextInput{Name: FieldClientID, Label: "Client Id"}},
			{TextInput: &dto.TextInput{Name: FieldClientSecret, Label: "Client Secret"}},
			{ButtonList: &dto.ButtonList{Buttons: []*dto.TextButton{{
				Text:    "Save Infos",
				OnClick: action(dto.ActionSaveCredentials, nil),
			}}}},
		},
	}
	return &dto.Card{Sections: []*dto.CardSection{logo, welcome, form}}
}

// AuthorizationCard asks the user to start the OAuth flow.
func AuthorizationCard(url string) *dto.Card {
	return &dto.Card{
		Header: &dto.CardHeader{Title: "Authorization required"},
		Sections: []*dto.CardSection{{
			Widgets: []*dto.Widget{
				{TextParagraph: &dto.TextParagraph{Text: "Please authorize access to your document server account."}},
				{ButtonList: &dto.ButtonList{Buttons: []*dto.TextButton{{
					Text:    "Authorize",
					OnClick: openLink(url),
				}}}},
			},
		}},
	}
}

// ActionChooserCard is the main menu once authorized.
func ActionChooserCard() *dto.Card {
	logo := &dto.CardSection{
		Widgets: []*dto.Widget{{
			DecoratedText: &dto.DecoratedText{Text: "<b>What do you like to do:</b>", IconURL: logoURL},
		}},
	}
	actions := &dto.CardSection{
		Widgets: []*dto.Widget{
			{DecoratedText: &dto.DecoratedText{
				Icon:    "EMAIL",
				Text:    "Push attachments from this email",
				OnClick: action(dto.ActionHandleAttachments, nil),
			}},
			{DecoratedText: &dto.DecoratedText{
				Icon:    "DESCRIPTION",
				Text:    "Create a note from this email",
				OnClick: action(dto.ActionHandleNotes, nil),
			}},
			{DecoratedText: &dto.DecoratedText{
				Icon:    "OFFER",
				Text:    "Find a document to link",
				OnClick: action(dto.ActionAssetNavigate, nil),
			}},
		},
	}
	return &dto.Card{Sections: []*dto.CardSection{logo, actions}}
}

// SimpleCard carries a title and one informational paragraph.
func SimpleCard(title, message string) *dto.Card {
	return &dto.Card{
		Header: &dto.CardHeader{Title: title},
		Sections: []*dto.CardSection{{
			Widgets: []*dto.Widget{{TextParagraph: &dto.TextParagraph{Text: message}}},
		}},
	}
}

// NothingHereCard is the informational result for empty listings.
// Empty results are not errors.
func NothingHereCard() *dto.Card {
	return SimpleCard("Nothing here!", "There is no other folders here.")
}

// DisconnectInfoCard reminds the user to refresh after a teardown.
func DisconnectInfoCard() *dto.Card {
	return SimpleCard("Disconnect", "You have to refresh the web page.")
}

// ErrorCard renders a failed action. The detail section is only added
// when the debug flag is on.
func ErrorCard(err error, showDetail bool) *dto.Card {
	errorText := "No additional information is available."
	if err != nil {
		errorText = err.Error()
	}
	card := &dto.Card{
		Header: &dto.CardHeader{Title: "An unexpected error occurred"},
		Sections: []*dto.CardSection{{
			Widgets: []*dto.Widget{
				{TextParagraph: &dto.TextParagraph{Text: errorText}},
				{ButtonList: &dto.ButtonList{Buttons: []*dto.TextButton{{
					Text:    "Reset/Disconnect",
					OnClick: action(dto.ActionDisconnectAccount, nil),
				}}}},
				{TextParagraph: &dto.TextParagraph{Text: "(Refresh the page after clicking on the button)"}},
			},
		}},
	}
	if showDetail && err != nil {
		card.Sections = append(card.Sections, &dto.CardSection{
			Header: "Detail",
			Widgets: []*dto.Widget{
				{TextParagraph: &dto.TextParagraph{Text: fmt.Sprintf("%+v", err)}},
			},
		})
	}
	return card
}

// ChildrenCard renders one level of the folder tree: a personal
// workspace shortcut on top, then one section per child with navigate
// and "save here" wired to the submission context carried in carry.
func ChildrenCard(children []*dms.Node, mode string, carry map[string]string) *dto.Card {
	pushAction := dto.ActionPushNote
	workspaceAction := dto.ActionPushNoteWorkspace
	if mode == "attachment" {
		pushAction = dto.ActionPushAttachment
		workspaceAction = dto.ActionPushAttachmentWorkspace
	}

	logo := &dto.CardSection{
		Widgets: []*dto.Widget{{
			DecoratedText: &dto.DecoratedText{Text: "<b>Please choose a folder to save content:</b>", IconURL: logoURL},
		}},
	}
	workspace := &dto.CardSection{
		Widgets: []*dto.Widget{{
			DecoratedText: &dto.DecoratedText{
				Icon:    "PERSON",
				Text:    "Create in personal workspace",
				OnClick: action(workspaceAction, carry),
			},
		}},
	}

	sections := []*dto.CardSection{logo, workspace}
	for _, child := range children {
		params := map[string]string{"id": child.ID, "mode": mode}
		for k, v := range carry {
			params[k] = v
		}
		sections = append(sections, &dto.CardSection{
			Widgets: []*dto.Widget{
				{DecoratedText: &dto.DecoratedText{
					Icon:    "MEMBERSHIP",
					Text:    child.Title,
					OnClick: action(dto.ActionChildNavigate, params),
				}},
				{ButtonList: &dto.ButtonList{Buttons: []*dto.TextButton{{
					Text:    "Save Here",
					OnClick: action(pushAction, params),
				}}}},
			},
		})
	}
	return &dto.Card{Sections: sections}
}

// AttachmentPickerCard lists the attachments of the open message as
// toggles; the confirm button forwards the message context so the
// event can be reconstructed on the next step.
func AttachmentPickerCard(msg *gmailmsg.Message, accessToken string) *dto.Card {
	toggles := make([]*dto.Widget, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		toggles = append(toggles, &dto.Widget{
			SwitchControl: &dto.SwitchControl{
				Name:  AttachmentTogglePrefix + strconv.Itoa(att.Index),
				Label: att.Filename,
				Value: "on",
			},
		})
	}
	confirm := &dto.Widget{
		ButtonList: &dto.ButtonList{Buttons: []*dto.TextButton{{
			Text: "Choose folder",
			OnClick: action(dto.ActionSaveAttachments, map[string]string{
				"messageId":   msg.ID,
				"accessToken": accessToken,
			}),
		}}},
	}
	return &dto.Card{
		Header: &dto.CardHeader{Title: "Select attachments"},
		Sections: []*dto.CardSection{{
			Widgets: append(toggles, confirm),
		}},
	}
}

// AssetSearchCard is the free-text document picker form.
func AssetSearchCard() *dto.Card {
	return &dto.Card{
		Header: &dto.CardHeader{Title: "Find a document"},
		Sections: []*dto.CardSection{{
			Widgets: []*dto.Widget{
				{TextInput: &dto.TextInput{Name: FieldSearchQuery, Label: "Search", Hint: "Title or keywords"}},
				{ButtonList: &dto.ButtonList{Buttons: []*dto.TextButton{{
					Text:    "Search",
					OnClick: action(dto.ActionAssetNavigate, nil),
				}}}},
			},
		}},
	}
}

// AssetResultsCard lists matching documents, each insertable into the
// open draft or openable in the server UI.
func AssetResultsCard(assets []*dms.Node) *dto.Card {
	sections := make([]*dto.CardSection, 0, len(assets))
	for _, asset := range assets {
		sections = append(sections, &dto.CardSection{
			Widgets: []*dto.Widget{
				{DecoratedText: &dto.DecoratedText{
					Icon:    "DESCRIPTION",
					Text:    asset.Title,
					OnClick: openLink(asset.DocumentURL),
				}},
				{ButtonList: &dto.ButtonList{Buttons: []*dto.TextButton{{
					Text: "Insert link",
					OnClick: action(dto.ActionInsertLink, map[string]string{
						"url":   asset.DocumentURL,
						"title": asset.Title,
					}),
				}}}},
			},
		})
	}
	return &dto.Card{
		Header:   &dto.CardHeader{Title: "Search results"},
		Sections: sections,
	}
}

// WorkflowCard lists the workflow models startable on a document.
func WorkflowCard(docID string, models []*dms.WorkflowModel) *dto.Card {
	widgets := make([]*dto.Widget, 0, len(models))
	for _, model := range models {
		widgets = append(widgets, &dto.Widget{
			DecoratedText: &dto.DecoratedText{
				Icon: "INVITE",
				Text: model.Name,
				OnClick: action(dto.ActionExecuteWF, map[string]string{
					"docId":      docID,
					"workflowId": model.ID,
				}),
			},
		})
	}
	return &dto.Card{
		Header:   &dto.CardHeader{Title: "Start a workflow"},
		Sections: []*dto.CardSection{{Widgets: widgets}},
	}
}

// ConfirmationCard confirms a created document, linking to it verbatim
// by the URL and id the server returned.
func ConfirmationCard(title string, doc *dms.Document) *dto.Card {
	return &dto.Card{
		Header: &dto.CardHeader{Title: title},
		Sections: []*dto.CardSection{{
			Widgets: []*dto.Widget{
				{DecoratedText: &dto.DecoratedText{
					TopLabel: "Document",
					Text:     doc.Title,
					OnClick:  openLink(doc.DocumentURL),
				}},
				{ButtonList: &dto.ButtonList{Buttons: []*dto.TextButton{
					{Text: "Open", OnClick: openLink(doc.DocumentURL)},
					{Text: "Start workflow", OnClick: action(dto.ActionShowWorkflows, map[string]string{"docId": doc.ID})},
				}}},
			},
		}},
	}
}
