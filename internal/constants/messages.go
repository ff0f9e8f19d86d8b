package constants

// Validation messages are part of the API contract: they are surfaced to end
// users verbatim, so the text here must not change casually.
const (
	MsgShowFieldsRequired = "date, time, label, lead pilot and monkey lead are required"
	MsgDailyShowLimit     = "daily show limit reached: at most 5 shows per date"
	MsgDuplicateOperator  = "an entry for this operator already exists in this show"
)

const (
	MsgWebhookDisabled  = "webhook is disabled"
	MsgWebhookNoURL     = "no webhook url configured"
	MsgShowNotFound     = "show not found"
	MsgEntryNotFound    = "entry not found"
	MsgArchiveNotFound  = "archived show not found"
	MsgInvalidBody      = "invalid request body"
	MsgStorageUnhealthy = "storage backend unreachable"
)
