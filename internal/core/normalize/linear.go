package normalize

// Linear webhook envelope: top level type + action with the entity in data

var linearMappers = map[string]mapper{
	"Issue":         linearEntity("issue"),
	"Project":       linearEntity("project"),
	"Cycle":         linearEntity("cycle"),
	"User":          linearUser,
	"Comment":       linearComment,
	"Label":         linearEntity("label"),
	"WorkflowState": linearEntity("workflow_state"),
}

// linearCommon fills fields shared by every Linear delivery
func linearCommon(e *Event, p map[string]any) {
	e.Action = str(p, "action")
	e.WebhookID = str(p, "webhookId")

	e.Organization = str(p, "organizationName")
	e.OrganizationID = str(p, "organizationId")
	if e.OrganizationID == "" {
		e.OrganizationID = str(p, "data", "organizationId")
	}

	e.Actor = str(p, "actor", "name")
	e.ActorID = str(p, "actor", "id")
	e.ActorType = str(p, "actor", "type")
	e.ActorEmail = str(p, "actor", "email")

	e.Timestamp = rfc3339(str(p, "createdAt"))
	if e.Timestamp.IsZero() {
		e.Timestamp = rfc3339(str(p, "data", "updatedAt"))
	}
}

// linearEntity maps the common data envelope onto the target fields
func linearEntity(kind string) mapper {
	return func(e *Event, p map[string]any) {
		linearCommon(e, p)
		e.TargetEntityType = kind
		e.TargetEntityID = str(p, "data", "id")
		e.TargetEntity = str(p, "data", "title")
		if e.TargetEntity == "" {
			e.TargetEntity = str(p, "data", "name")
		}
	}
}

func linearUser(e *Event, p map[string]any) {
	linearCommon(e, p)
	e.TargetEntityType = "user"
	e.TargetEntityID = str(p, "data", "id")
	e.TargetEntity = str(p, "data", "name")
	if e.ActorEmail == "" {
		e.ActorEmail = str(p, "data", "email")
	}
}

func linearComment(e *Event, p map[string]any) {
	linearCommon(e, p)
	e.TargetEntityType = "comment"
	e.TargetEntityID = str(p, "data", "id")
	// comments hang off an issue; surface that as the entity name
	e.TargetEntity = str(p, "data", "issue", "title")
	if e.TargetEntity == "" {
		e.TargetEntity = str(p, "data", "body")
	}
}
