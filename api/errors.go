package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/captify-io/ontology/engine"
	"github.com/captify-io/ontology/registry"
	"github.com/captify-io/ontology/schema"
	"github.com/captify-io/ontology/store"
)

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields []schema.FieldError `json:"fields,omitempty"`
}

// writeError maps the engine's error taxonomy onto HTTP statuses. Every
// response carries a stable machine-readable code alongside the message.
func writeError(c *gin.Context, err error) {
	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, errorBody{Error: ve.Error(), Code: "validation_error", Fields: ve.Fields})
		return
	}

	status := http.StatusInternalServerError
	code := "internal"
	switch {
	case errors.Is(err, registry.ErrInvalidSchema),
		errors.Is(err, registry.ErrInvalidSlug),
		errors.Is(err, registry.ErrInvalidDefinition),
		errors.Is(err, registry.ErrBuiltin),
		errors.Is(err, store.ErrBadToken):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, registry.ErrUnknownObjectType):
		status, code = http.StatusNotFound, "unknown_object_type"
	case errors.Is(err, registry.ErrUnknownLinkType):
		status, code = http.StatusNotFound, "unknown_link_type"
	case errors.Is(err, registry.ErrUnknownActionType):
		status, code = http.StatusNotFound, "unknown_action_type"
	case errors.Is(err, store.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, registry.ErrAlreadyExists), errors.Is(err, engine.ErrAlreadyExists):
		status, code = http.StatusConflict, "already_exists"
	case errors.Is(err, engine.ErrVersionConflict), errors.Is(err, registry.ErrVersionConflict):
		status, code = http.StatusConflict, "version_conflict"
	case errors.Is(err, engine.ErrActionNotPermitted):
		status, code = http.StatusForbidden, "action_not_permitted"
	case errors.Is(err, store.ErrTimeout):
		status, code = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, store.ErrUnavailable):
		status, code = http.StatusServiceUnavailable, "unavailable"
	}

	c.JSON(status, errorBody{Error: err.Error(), Code: code})
}
