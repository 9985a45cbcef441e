package view

import "dms-gmail-addon/internal/dto"

// Envelope helpers: the same card surfaces differently depending on
// which entry point produced it.

// CardsResult answers a contextual add-on load.
func CardsResult(cards ...*dto.Card) *dto.RenderResult {
	return &dto.RenderResult{Cards: cards}
}

// UniversalResult wraps cards in the universal action envelope.
func UniversalResult(cards ...*dto.Card) *dto.RenderResult {
	return &dto.RenderResult{
		UniversalAction: &dto.UniversalActionResponse{Cards: cards},
	}
}

// PushResult answers a secondary action by pushing a card.
func PushResult(card *dto.Card) *dto.RenderResult {
	return &dto.RenderResult{
		Action: &dto.ActionResponse{
			Navigations: []*dto.Navigation{{PushCard: card}},
		},
	}
}

// InsertHTMLResult asks the host to insert content into the open draft.
func InsertHTMLResult(html string) *dto.RenderResult {
	return &dto.RenderResult{
		Action: &dto.ActionResponse{
			UpdateDraft: &dto.UpdateDraft{InsertHTML: html},
		},
	}
}

// AuthorizationResult tells the host to run the authorization flow.
func AuthorizationResult(url string) *dto.RenderResult {
	return &dto.RenderResult{
		Action: &dto.ActionResponse{AuthorizationURL: url},
	}
}
