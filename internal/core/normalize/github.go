package normalize

// GitHub webhook shapes. Event type arrives via the delivery header;
// most payloads share the repository / organization / sender envelope

var githubMappers = map[string]mapper{
	"push":          ghPush,
	"pull_request":  ghPullRequest,
	"issues":        ghIssues,
	"issue_comment": ghIssueComment,
	"release":       ghRelease,
	"workflow_run":  ghWorkflowRun,
	"star":          ghCommon,
	"fork":          ghFork,
}

// ghCommon fills the envelope fields every GitHub payload shares
func ghCommon(e *Event, p map[string]any) {
	e.Action = str(p, "action")

	e.Repository = str(p, "repository", "full_name")
	e.RepositoryID = idstr(p, "repository", "id")
	e.Organization = str(p, "organization", "login")
	e.OrganizationID = idstr(p, "organization", "id")
	if e.Organization == "" {
		e.Organization = str(p, "repository", "owner", "login")
		e.OrganizationID = idstr(p, "repository", "owner", "id")
	}

	e.Actor = str(p, "sender", "login")
	e.ActorID = idstr(p, "sender", "id")
	e.ActorType = str(p, "sender", "type")
}

func ghPush(e *Event, p map[string]any) {
	ghCommon(e, p)
	e.ActorEmail = str(p, "pusher", "email")
	e.TargetEntity = str(p, "ref")
	e.TargetEntityID = str(p, "head_commit", "id")
	e.TargetEntityType = "commit"
	if after := str(p, "after"); after != "" && e.TargetEntityID == "" {
		e.TargetEntityID = after
	}
	e.Timestamp = rfc3339(str(p, "head_commit", "timestamp"))
}

func ghPullRequest(e *Event, p map[string]any) {
	ghCommon(e, p)
	e.TargetEntity = str(p, "pull_request", "title")
	e.TargetEntityID = idstr(p, "pull_request", "number")
	e.TargetEntityType = "pull_request"
	e.Timestamp = rfc3339(str(p, "pull_request", "updated_at"))
}

func ghIssues(e *Event, p map[string]any) {
	ghCommon(e, p)
	e.TargetEntity = str(p, "issue", "title")
	e.TargetEntityID = idstr(p, "issue", "number")
	e.TargetEntityType = "issue"
	e.Timestamp = rfc3339(str(p, "issue", "updated_at"))
}

func ghIssueComment(e *Event, p map[string]any) {
	ghCommon(e, p)
	e.TargetEntity = str(p, "issue", "title")
	e.TargetEntityID = idstr(p, "comment", "id")
	e.TargetEntityType = "issue_comment"
	e.Timestamp = rfc3339(str(p, "comment", "updated_at"))
}

func ghRelease(e *Event, p map[string]any) {
	ghCommon(e, p)
	e.TargetEntity = str(p, "release", "tag_name")
	e.TargetEntityID = idstr(p, "release", "id")
	e.TargetEntityType = "release"
	e.Timestamp = rfc3339(str(p, "release", "published_at"))
}

func ghWorkflowRun(e *Event, p map[string]any) {
	ghCommon(e, p)
	e.TargetEntity = str(p, "workflow_run", "name")
	e.TargetEntityID = idstr(p, "workflow_run", "id")
	e.TargetEntityType = "workflow_run"
	e.Timestamp = rfc3339(str(p, "workflow_run", "updated_at"))
}

func ghFork(e *Event, p map[string]any) {
	ghCommon(e, p)
	e.TargetEntity = str(p, "forkee", "full_name")
	e.TargetEntityID = idstr(p, "forkee", "id")
	e.TargetEntityType = "repository"
}
