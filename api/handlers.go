package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/captify-io/ontology/engine"
	"github.com/captify-io/ontology/links"
	"github.com/captify-io/ontology/registry"
	"github.com/captify-io/ontology/schema"
)

// --- registry: object types ---

func (s *Server) createObjectType(c *gin.Context) {
	var def registry.ObjectType
	if err := c.ShouldBindJSON(&def); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_json"})
		return
	}
	def.CreatedBy = actor(c)
	created, err := s.registry.CreateObjectType(c.Request.Context(), def)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getObjectType(c *gin.Context) {
	ot, err := s.registry.GetObjectType(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ot)
}

func (s *Server) listObjectTypes(c *gin.Context) {
	types, err := s.registry.ListObjectTypes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"objectTypes": types, "count": len(types)})
}

func (s *Server) updateObjectTypeProperties(c *gin.Context) {
	var body struct {
		Properties schema.Properties `json:"properties"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_json"})
		return
	}
	ot, err := s.registry.UpdateObjectTypeProperties(c.Request.Context(), c.Param("slug"), body.Properties, actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ot)
}

func (s *Server) setObjectTypeStatus(c *gin.Context) {
	var body struct {
		Status registry.Status `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_json"})
		return
	}
	ot, err := s.registry.SetObjectTypeStatus(c.Request.Context(), c.Param("slug"), body.Status, actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ot)
}

func (s *Server) describeObjectType(c *gin.Context) {
	desc, err := s.introspect.Describe(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, desc)
}

func (s *Server) listLinkTypes(c *gin.Context) {
	direction := registry.Direction(c.DefaultQuery("direction", string(registry.DirectionOutgoing)))
	if direction != registry.DirectionOutgoing && direction != registry.DirectionIncoming {
		c.JSON(http.StatusBadRequest, errorBody{Error: "direction must be outgoing or incoming", Code: "invalid_request"})
		return
	}
	types, err := s.registry.ListLinkTypesForObjectType(c.Request.Context(), c.Param("slug"), direction)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"linkTypes": types, "count": len(types)})
}

func (s *Server) listActionTypes(c *gin.Context) {
	types, err := s.registry.ListActionTypesForObjectType(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actionTypes": types, "count": len(types)})
}

// --- registry: link and action types ---

func (s *Server) createLinkType(c *gin.Context) {
	var def registry.LinkType
	if err := c.ShouldBindJSON(&def); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_json"})
		return
	}
	def.CreatedBy = actor(c)
	created, err := s.registry.CreateLinkType(c.Request.Context(), def)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getLinkType(c *gin.Context) {
	lt, err := s.registry.GetLinkType(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lt)
}

func (s *Server) setLinkTypeStatus(c *gin.Context) {
	var body struct {
		Status registry.Status `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_json"})
		return
	}
	lt, err := s.registry.SetLinkTypeStatus(c.Request.Context(), c.Param("slug"), body.Status, actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lt)
}

func (s *Server) createActionType(c *gin.Context) {
	var def registry.ActionType
	if err := c.ShouldBindJSON(&def); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_json"})
		return
	}
	def.CreatedBy = actor(c)
	created, err := s.registry.CreateActionType(c.Request.Context(), def)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getActionType(c *gin.Context) {
	at, err := s.registry.GetActionType(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, at)
}

// --- items ---

func (s *Server) createItem(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_json"})
		return
	}
	inst, err := s.engine.CreateItem(c.Request.Context(), c.Param("type"), payload, actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inst)
}

func (s *Server) getItem(c *gin.Context) {
	inst, err := s.engine.GetItem(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inst)
}

func (s *Server) updateItem(c *gin.Context) {
	var partial map[string]any
	if err := c.ShouldBindJSON(&partial); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_json"})
		return
	}
	inst, err := s.engine.UpdateItem(c.Request.Context(), c.Param("type"), c.Param("id"), partial, actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inst)
}

func (s *Server) deleteItem(c *gin.Context) {
	if err := s.engine.DeleteItem(c.Request.Context(), c.Param("type"), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listItems(c *gin.Context) {
	opts := engine.ListOptions{NextToken: c.Query("nextToken")}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, errorBody{Error: "limit must be a non-negative integer", Code: "invalid_request"})
			return
		}
		opts.Limit = int32(n)
	}
	// Equality filters arrive as filter.<property>=<value> query parameters.
	// Values are coerced to the declared property type so numeric and boolean
	// equality works against typed storage attributes.
	var props schema.Properties
	for key, values := range c.Request.URL.Query() {
		prop, ok := strings.CutPrefix(key, "filter.")
		if !ok || len(values) == 0 {
			continue
		}
		if props == nil {
			ot, err := s.registry.GetObjectType(c.Request.Context(), c.Param("type"))
			if err != nil {
				writeError(c, err)
				return
			}
			props = ot.Properties
		}
		value, err := coerceFilterValue(props[prop], values[0])
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody{
				Error: fmt.Sprintf("filter.%s: %v", prop, err),
				Code:  "invalid_request",
			})
			return
		}
		if opts.Filter == nil {
			opts.Filter = map[string]any{}
		}
		opts.Filter[prop] = value
	}
	page, err := s.engine.ListItems(c.Request.Context(), c.Param("type"), opts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// coerceFilterValue converts a query-string filter value to the property's
// declared type. Undeclared properties stay strings.
func coerceFilterValue(def schema.Property, raw string) (any, error) {
	switch def.Type {
	case schema.TypeNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", raw)
		}
		return n, nil
	case schema.TypeBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("expected a boolean, got %q", raw)
		}
		return b, nil
	default:
		return raw, nil
	}
}

// --- links ---

func (s *Server) resolveLinks(c *gin.Context) {
	ctx := c.Request.Context()
	slug, id := c.Param("type"), c.Param("id")
	direction := c.DefaultQuery("direction", "both")
	if direction != "outgoing" && direction != "incoming" && direction != "both" {
		c.JSON(http.StatusBadRequest, errorBody{Error: "direction must be outgoing, incoming or both", Code: "invalid_request"})
		return
	}

	var outgoing, incoming []links.Resolution
	var err error
	if direction == "outgoing" || direction == "both" {
		if outgoing, err = s.resolver.ResolveOutgoing(ctx, slug, id); err != nil {
			writeError(c, err)
			return
		}
	}
	if direction == "incoming" || direction == "both" {
		if incoming, err = s.resolver.ResolveIncoming(ctx, slug, id); err != nil {
			writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"outgoing": outgoing, "incoming": incoming})
}

// --- actions ---

func (s *Server) executeAction(c *gin.Context) {
	var body struct {
		ItemID string         `json:"itemId"`
		Params map[string]any `json:"params"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_json"})
		return
	}
	inst, err := s.engine.ExecuteAction(c.Request.Context(), c.Param("slug"), body.ItemID, body.Params, actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inst)
}
