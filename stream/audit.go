// Package stream provides a DynamoDB Streams handler that audits link
// integrity after instance deletions.
package stream

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/captify-io/ontology/engine"
	"github.com/captify-io/ontology/registry"
)

// Handler processes instance-table stream events and reports foreign keys
// left dangling by a deletion. Detection only: link integrity is eventually
// consistent and broken references stay visible to readers until the
// referencing instances are updated. The handler never repairs or deletes.
type Handler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewHandler creates a stream handler.
// This function is designed to be used as an AWS Lambda handler.
func NewHandler(eng *engine.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: eng, logger: logger}
}

// DanglingReference identifies one instance left pointing at a deleted one.
type DanglingReference struct {
	LinkType   string `json:"linkType"`
	ObjectType string `json:"objectType"`
	InstanceID string `json:"instanceId"`
	ForeignKey string `json:"foreignKey"`
	MissingID  string `json:"missingId"`
}

// HandleInstanceRemoved processes DynamoDB stream events for instance tables
// and returns every dangling reference the removals left behind.
func (h *Handler) HandleInstanceRemoved(ctx context.Context, event events.DynamoDBEvent) ([]DanglingReference, error) {
	var report []DanglingReference
	for _, record := range event.Records {
		refs, err := h.processRecord(ctx, record)
		if err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return report, err // Will retry, eventually DLQ
		}
		report = append(report, refs...)
	}
	return report, nil
}

// processRecord audits a single REMOVE record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) ([]DanglingReference, error) {
	if record.EventName != "REMOVE" {
		return nil, nil
	}

	id := getStringAttr(record.Change.OldImage, engine.FieldID)
	objectType := getStringAttr(record.Change.OldImage, engine.FieldObjectType)
	if id == "" || objectType == "" {
		return nil, nil
	}

	refs, err := h.auditReferences(ctx, objectType, id)
	if err != nil {
		return nil, err
	}

	for _, ref := range refs {
		h.logger.Warn("dangling reference left by deletion",
			"linkType", ref.LinkType,
			"objectType", ref.ObjectType,
			"instanceId", ref.InstanceID,
			"foreignKey", ref.ForeignKey,
			"missingId", ref.MissingID,
		)
	}
	h.logger.Info("instance removal audited",
		"objectType", objectType,
		"instanceId", id,
		"danglingReferences", len(refs),
	)
	return refs, nil
}

// auditReferences finds every instance still holding the deleted id in a
// link foreign key.
func (h *Handler) auditReferences(ctx context.Context, objectType, id string) ([]DanglingReference, error) {
	reg := h.engine.Registry()
	var report []DanglingReference

	// Links where the deleted type is the source keep their foreign key on
	// target instances for the "one"-sided cardinalities.
	outgoing, err := reg.ListLinkTypesForObjectType(ctx, objectType, registry.DirectionOutgoing)
	if err != nil {
		return nil, err
	}
	for _, lt := range outgoing {
		if lt.Status != registry.StatusActive || !lt.Cardinality.ForeignKeyOnTarget() {
			continue
		}
		refs, err := h.collectHolders(ctx, lt, lt.TargetObjectType, id)
		if err != nil {
			return nil, err
		}
		report = append(report, refs...)
	}

	// Links where the deleted type is the target keep their foreign key on
	// source instances for MANY_TO_ONE, and an id array for MANY_TO_MANY.
	incoming, err := reg.ListLinkTypesForObjectType(ctx, objectType, registry.DirectionIncoming)
	if err != nil {
		return nil, err
	}
	for _, lt := range incoming {
		if lt.Status != registry.StatusActive {
			continue
		}
		switch lt.Cardinality {
		case registry.ManyToOne:
			refs, err := h.collectHolders(ctx, lt, lt.SourceObjectType, id)
			if err != nil {
				return nil, err
			}
			report = append(report, refs...)
		case registry.ManyToMany:
			refs, err := h.collectArrayHolders(ctx, lt, lt.SourceObjectType, id)
			if err != nil {
				return nil, err
			}
			report = append(report, refs...)
		}
	}

	return report, nil
}

func (h *Handler) collectHolders(ctx context.Context, lt registry.LinkType, holderType, id string) ([]DanglingReference, error) {
	var out []DanglingReference
	token := ""
	for {
		page, err := h.engine.ListItems(ctx, holderType, engine.ListOptions{
			Filter:    map[string]any{lt.ForeignKey: id},
			NextToken: token,
		})
		if err != nil {
			return nil, err
		}
		for _, inst := range page.Items {
			out = append(out, DanglingReference{
				LinkType:   lt.Slug,
				ObjectType: holderType,
				InstanceID: inst.ID,
				ForeignKey: lt.ForeignKey,
				MissingID:  id,
			})
		}
		if page.NextToken == "" {
			return out, nil
		}
		token = page.NextToken
	}
}

func (h *Handler) collectArrayHolders(ctx context.Context, lt registry.LinkType, holderType, id string) ([]DanglingReference, error) {
	var out []DanglingReference
	token := ""
	for {
		page, err := h.engine.ListItems(ctx, holderType, engine.ListOptions{NextToken: token})
		if err != nil {
			return nil, err
		}
		for _, inst := range page.Items {
			arr, _ := inst.Properties[lt.ForeignKey].([]any)
			for _, elem := range arr {
				if s, ok := elem.(string); ok && s == id {
					out = append(out, DanglingReference{
						LinkType:   lt.Slug,
						ObjectType: holderType,
						InstanceID: inst.ID,
						ForeignKey: lt.ForeignKey,
						MissingID:  id,
					})
					break
				}
			}
		}
		if page.NextToken == "" {
			return out, nil
		}
		token = page.NextToken
	}
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}
