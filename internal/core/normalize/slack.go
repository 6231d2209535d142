package normalize

// Slack shapes: url_verification handshakes, event_callback envelopes with a
// nested event.type, interactive block_actions / view_submission payloads,
// and form encoded slash commands

var slackMappers = map[string]mapper{
	"url_verification": slackURLVerification,
	"event_callback":   slackEventCallback,
	"block_actions":    slackBlockActions,
	"view_submission":  slackViewSubmission,
	"slash_command":    slackSlashCommand,
}

func slackURLVerification(e *Event, p map[string]any) {
	// handshake only; nothing to extract beyond the type itself
	e.TargetEntityType = "handshake"
}

func slackEventCallback(e *Event, p map[string]any) {
	// surface the nested event type as the primary classifier
	if nested := str(p, "event", "type"); nested != "" {
		e.EventType = nested
	}
	e.DeliveryID = str(p, "event_id")
	e.WebhookID = str(p, "api_app_id")

	e.Actor = str(p, "event", "user")
	e.ActorID = str(p, "event", "user")
	e.ActorType = "user"
	if bot := str(p, "event", "bot_id"); bot != "" {
		e.ActorID = bot
		e.ActorType = "bot"
	}

	e.Channel = str(p, "event", "channel", "name")
	e.ChannelID = str(p, "event", "channel")
	if e.ChannelID == "" {
		e.ChannelID = str(p, "event", "channel", "id")
	}
	e.ChannelType = str(p, "event", "channel_type")

	e.OrganizationID = str(p, "team_id")

	e.TargetEntityType = e.EventType
	e.TargetEntityID = str(p, "event", "ts")
	if e.TargetEntityID == "" {
		e.TargetEntityID = str(p, "event", "event_ts")
	}

	e.Timestamp = epochSeconds(str(p, "event", "ts"))
	if e.Timestamp.IsZero() {
		e.Timestamp = epochSeconds(str(p, "event_time_str"))
	}
}

func slackBlockActions(e *Event, p map[string]any) {
	e.Actor = str(p, "user", "username")
	e.ActorID = str(p, "user", "id")
	e.ActorType = "user"

	e.Channel = str(p, "channel", "name")
	e.ChannelID = str(p, "channel", "id")

	e.OrganizationID = str(p, "team", "id")
	e.Organization = str(p, "team", "domain")

	// first action identifies what was clicked
	if actions, ok := dig(p, "actions").([]any); ok && len(actions) > 0 {
		if a, ok := actions[0].(map[string]any); ok {
			e.TargetEntity = str(a, "action_id")
			e.TargetEntityID = str(a, "block_id")
		}
	}
	e.TargetEntityType = "block_action"
	e.Timestamp = epochSeconds(str(p, "message", "ts"))
}

func slackViewSubmission(e *Event, p map[string]any) {
	e.Actor = str(p, "user", "username")
	e.ActorID = str(p, "user", "id")
	e.ActorType = "user"

	e.OrganizationID = str(p, "team", "id")
	e.Organization = str(p, "team", "domain")

	e.TargetEntity = str(p, "view", "callback_id")
	e.TargetEntityID = str(p, "view", "id")
	e.TargetEntityType = "view"
}

func slackSlashCommand(e *Event, p map[string]any) {
	e.Actor = str(p, "user_name")
	e.ActorID = str(p, "user_id")
	e.ActorType = "user"

	e.Channel = str(p, "channel_name")
	e.ChannelID = str(p, "channel_id")

	e.OrganizationID = str(p, "team_id")
	e.Organization = str(p, "team_domain")

	e.TargetEntity = str(p, "command")
	e.TargetEntityID = str(p, "trigger_id")
	e.TargetEntityType = "slash_command"
}
