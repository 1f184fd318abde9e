package rules

const (
	TrendSetName      = "trend"
	TicketTypeSetName = "ticket_type"
	IssueTypeSetName  = "issue_type"
)

const (
	DefaultTrendThreshold      = 3
	DefaultTicketTypeThreshold = 1
	DefaultIssueTypeThreshold  = 1
)

// TicketTypeReference is the closed list of ticket types agents may assign.
var TicketTypeReference = []string{
	"CEE - API issue",
	"CEE - Campaign issue",
	"CEE - Customer queries",
	"CEE - Database uploading issue",
	"CEE - Event not reflecting",
	"CEE - Journey issue",
	"CEE - Non Relevant",
	"CEE - Reports issue",
	"CEE - Segment issue",
	"CEE - SFTP issue",
	"CEE - Spam issues",
	"CEE - Task",
	"CEE - Template issue",
	"CEE - UI Functional issues/bugs",
	"CEE - Webhooks issue",
}

var IssueTypeReference = []string{
	"Configuration",
	"Enhancement",
	"Global incident",
	"Integration",
	"Knowledge",
	"Monitoring",
	"No Concern",
	"Query",
	"One-time incident",
	"Task",
	"Tech",
}

var defaultTrendRules = []Rule{
	{Label: "DLT Configuration Issues", Matchers: []string{"dlt", "template id", "entity id", "header failure", "failed to submit dlt"}},
	{Label: "Campaign Execution Issues", Matchers: []string{"campaign", "execution", "trigger", "panel", "segment not delivered"}},
	{Label: "Approval Delays", Matchers: []string{"approval pending", "waiting for approval", "submitted for approval"}},
	{Label: "High Escalation Volume", Matchers: []string{"urgent", "critical", "asap", "multiple escalations"}},
	{Label: "Email Delivery Failures", Matchers: []string{"not received", "email delivery failed", "bounce", "not delivered"}},
	{Label: "Generic System Errors", Matchers: []string{"not working", "error occurred", "page not loading", "bug", "issue"}},
	{Label: "Account Access or Configuration", Matchers: []string{"login issue", "password reset", "access denied", "disabled", "unauthorized"}},
	{Label: "WhatsApp Channel Issues", Matchers: []string{"whatsapp", "green tick", "template rejected", "24 hour session"}},
	{Label: "Order or Billing Problems", Matchers: []string{"invoice", "billing", "charged", "amount", "payment"}},
}

var defaultTicketTypeRules = []Rule{
	{Label: "CEE - API issue", Matchers: []string{"api error", "authentication failed", "invalid api key", "missing parameter"}},
	{Label: "CEE - Campaign issue", Matchers: []string{"campaign failed", "campaign not sent", "campaign paused"}},
	{Label: "CEE - Customer queries", Matchers: []string{"customer asked", "customer query", "confused", "clarification"}},
	{Label: "CEE - Database uploading issue", Matchers: []string{"upload failed", "file upload", "csv not uploading", "upload stuck"}},
	{Label: "CEE - Event not reflecting", Matchers: []string{"event not received", "event missing", "event delay"}},
	{Label: "CEE - Journey issue", Matchers: []string{"journey not triggered", "flow stuck", "journey failed"}},
	{Label: "CEE - Reports issue", Matchers: []string{"report missing", "report incorrect", "analytics not loading"}},
	{Label: "CEE - Segment issue", Matchers: []string{"segment not updating", "segment issue", "segment missing"}},
	{Label: "CEE - UI Functional issues/bugs", Matchers: []string{"button not working", "screen blank", "ui not responsive", "not clickable"}},
	{Label: "CEE - Webhooks issue", Matchers: []string{"webhook failed", "webhook not received", "webhook error"}},
	{Label: "CEE - SFTP issue", Matchers: []string{"sftp failed", "sftp connection", "sftp access", "sftp upload"}},
	{Label: "CEE - Spam issues", Matchers: []string{"marked spam", "spam folder", "email flagged"}},
	{Label: "CEE - Task", Matchers: []string{"to be done", "create task", "task pending"}},
	{Label: "CEE - Template issue", Matchers: []string{"template broken", "template not loading", "template issue"}},
	{Label: "CEE - Non Relevant", Matchers: []string{"test ticket", "demo", "trial", "sample"}},
}

var defaultIssueTypeRules = []Rule{
	{Label: "Configuration", Matchers: []string{"misconfigured", "wrong setting", "incorrect setup"}},
	{Label: "Enhancement", Matchers: []string{"feature request", "suggestion", "enhancement"}},
	{Label: "Global incident", Matchers: []string{"outage", "major issue", "downtime", "widespread"}},
	{Label: "Integration", Matchers: []string{"integration failed", "api error", "webhook failed", "sftp"}},
	{Label: "Knowledge", Matchers: []string{"documentation missing", "not aware", "did not know", "unaware"}},
	{Label: "Monitoring", Matchers: []string{"alert not received", "monitoring issue", "threshold breach"}},
	{Label: "No Concern", Matchers: []string{"no issue found", "everything okay", "working fine"}},
	{Label: "Query", Matchers: []string{"how to", "can i", "query", "clarification"}},
	{Label: "One-time incident", Matchers: []string{"happened once", "isolated issue", "rare occurrence"}},
	{Label: "Task", Matchers: []string{"pending item", "to-do", "next step", "internal task"}},
	{Label: "Tech", Matchers: []string{"bug", "error", "code fix", "backend issue", "deployment"}},
}

// Bundle is the three independent rule sets a tagging run uses. They are
// never merged.
type Bundle struct {
	Trend      *RuleSet
	TicketType *RuleSet
	IssueType  *RuleSet
}

func DefaultTrend() *RuleSet {
	return MustNew(TrendSetName, MatchLiteral, DefaultTrendThreshold, defaultTrendRules)
}

func DefaultTicketType() *RuleSet {
	return MustNew(TicketTypeSetName, MatchLiteral, DefaultTicketTypeThreshold, defaultTicketTypeRules)
}

func DefaultIssueType() *RuleSet {
	return MustNew(IssueTypeSetName, MatchLiteral, DefaultIssueTypeThreshold, defaultIssueTypeRules)
}

func DefaultBundle() Bundle {
	return Bundle{
		Trend:      DefaultTrend(),
		TicketType: DefaultTicketType(),
		IssueType:  DefaultIssueType(),
	}
}

// WithThresholds overrides thresholds on every set; zero keeps the set's own.
func (b Bundle) WithThresholds(trend, ticketType, issueType int) Bundle {
	if trend > 0 {
		b.Trend = b.Trend.WithThreshold(trend)
	}
	if ticketType > 0 {
		b.TicketType = b.TicketType.WithThreshold(ticketType)
	}
	if issueType > 0 {
		b.IssueType = b.IssueType.WithThreshold(issueType)
	}
	return b
}
