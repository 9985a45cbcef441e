package controller

import (
	"fmt"
	"html"

	"dms-gmail-addon/internal/dto"
	"dms-gmail-addon/internal/pkg/serverutils"
	"dms-gmail-addon/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Universal (menu) actions reachable without widget context, mapped
// from the URL segment the host manifest points at.
var universalActions = map[string]string{
	"disconnect":      dto.ActionDisconnectAccount,
	"disconnect-info": dto.ActionShowDisconnectInfo,
}

type IAddonController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	Contextual(ctx *fiber.Ctx) error
	Action(ctx *fiber.Ctx) error
	Universal(ctx *fiber.Ctx) error
	OAuthCallback(ctx *fiber.Ctx) error
}

type addonController struct {
	dispatch service.IDispatchService
	addon    service.IAddonService
	oauth    service.IOAuthService
}

func NewAddonController(
	dispatch service.IDispatchService,
	addon service.IAddonService,
	oauth service.IOAuthService,
) IAddonController {
	return &addonController{
		dispatch: dispatch,
		addon:    addon,
		oauth:    oauth,
	}
}

func (c *addonController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group("/addon/v1")
	// The OAuth callback is reached by the document server's redirect,
	// not by the host, so it stays outside the JWT check.
	h.Get("oauth/callback", c.OAuthCallback)

	h.Use(jwtMiddleware)
	h.Post("contextual", c.Contextual)
	h.Post("action", c.Action)
	h.Post("universal/:name", c.Universal)
}

func (c *addonController) parseEvent(ctx *fiber.Ctx) (*dto.ActionEvent, error) {
	var event dto.ActionEvent
	if err := ctx.BodyParser(&event); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "malformed event payload")
	}
	event.InstallationID, _ = ctx.Locals(serverutils.LocalInstallationID).(string)
	return &event, nil
}

// Contextual is the entry point for the add-on opening on a message.
// The action is forced: the host carries no widget parameters here.
func (c *addonController) Contextual(ctx *fiber.Ctx) error {
	event, err := c.parseEvent(ctx)
	if err != nil {
		return err
	}
	if event.Parameters == nil {
		event.Parameters = map[string]string{}
	}
	event.Parameters[dto.ParamAction] = dto.ActionShowAddOn

	result, err := c.dispatch.Dispatch(ctx.Context(), event,
		c.addon.ContextualErrorHandler(ctx.Context(), event.InstallationID))
	if err != nil {
		return err
	}
	return ctx.JSON(result)
}

// Action is the entry point for widget clicks (secondary actions).
func (c *addonController) Action(ctx *fiber.Ctx) error {
	event, err := c.parseEvent(ctx)
	if err != nil {
		return err
	}
	result, err := c.dispatch.Dispatch(ctx.Context(), event,
		c.addon.ActionErrorHandler(ctx.Context(), event.InstallationID))
	if err != nil {
		return err
	}
	return ctx.JSON(result)
}

// Universal is the entry point for menu actions named in the manifest.
func (c *addonController) Universal(ctx *fiber.Ctx) error {
	actionName, ok := universalActions[ctx.Params("name")]
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown universal action")
	}
	event, err := c.parseEvent(ctx)
	if err != nil {
		return err
	}
	if event.Parameters == nil {
		event.Parameters = map[string]string{}
	}
	event.Parameters[dto.ParamAction] = actionName

	result, err := c.dispatch.Dispatch(ctx.Context(), event,
		c.addon.UniversalErrorHandler(ctx.Context(), event.InstallationID))
	if err != nil {
		return err
	}
	return ctx.JSON(result)
}

const authSuccessHTML = `<!DOCTYPE html>
<html><body>
<p>Authorization successful. You can close this window and get back to Gmail.</p>
<script>setTimeout(function(){window.close();},2000);</script>
</body></html>`

const authFailureHTML = `<!DOCTYPE html>
<html><body>
<p>Authorization failed: %s</p>
<p>Close this window and try again from Gmail.</p>
</body></html>`

// OAuthCallback completes the document server's OAuth redirect and
// shows a small HTML confirmation page.
func (c *addonController) OAuthCallback(ctx *fiber.Ctx) error {
	state := ctx.Query("state")
	code := ctx.Query("code")

	ctx.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	if err := c.oauth.HandleCallback(ctx.Context(), state, code); err != nil {
		return ctx.Status(fiber.StatusBadRequest).
			SendString(formatAuthFailure(err))
	}
	return ctx.SendString(authSuccessHTML)
}

func formatAuthFailure(err error) string {
	return fmt.Sprintf(authFailureHTML, html.EscapeString(err.Error()))
}
