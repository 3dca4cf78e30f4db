package constants

// Context keys shared between middleware and handlers
const (
	ContextKeyUserID       = "user_id"
	ContextKeyUsername     = "username"
	ContextKeyTask         = "task"
	ContextKeyOrganization = "organization"
	ContextKeyMember       = "organization_member"
)

// Pagination limits
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ActivityFeedLimit bounds how many activity entries a single listing returns.
const ActivityFeedLimit = 20

// ReservedTitles are board column labels a task title may never collide with.
var ReservedTitles = []string{"todo", "inprogress", "done", "Todo", "In Progress", "Done"}

// IsReservedTitle reports whether the given title matches a board column label.
func IsReservedTitle(title string) bool {
	for _, reserved := range ReservedTitles {
		if title == reserved {
			return true
		}
	}
	return false
}
