package transport

// DropCreateRequest creates a DRAFT (or SCHEDULED) drop.
type DropCreateRequest struct {
	Name            string   `json:"name"`
	ArticleIDs      []string `json:"article_ids"`
	GroupIDs        []string `json:"group_ids"`
	MessageTemplate string   `json:"message_template"`
	ScheduledFor    string   `json:"scheduled_for"`
}

// DropScheduleRequest moves a drop's dispatch time.
type DropScheduleRequest struct {
	ScheduledFor string `json:"scheduled_for"`
}

// TicketIssueRequest issues the claim-check for a paid order.
type TicketIssueRequest struct {
	OrderID  string `json:"order_id"`
	TTLHours int    `json:"ttl_hours"`
}

// TicketVerifyRequest resolves a claim code or scanned payload.
type TicketVerifyRequest struct {
	Identifier string `json:"identifier"`
}

// TicketRedeemRequest marks a ticket used by the given delivery agent.
type TicketRedeemRequest struct {
	AgentID string `json:"agent_id"`
}
