package shared

// Capability names gating platform features. Each maps to a registered
// requirement in internal/access.
const (
	CapRidesRequest  = "rides.request"
	CapRidesView     = "rides.view"
	CapRidesPriority = "rides.priority"

	CapVIPDataAccess = "vip_data_access"

	CapFleetManage = "fleet.manage"

	CapHotelsBook = "hotels.book"

	CapPaymentsMethodsManage = "payments.methods.manage"

	CapUsersManage = "users.manage"
	CapAuditView   = "audit.view"
)

// PlatformCapabilities lists every capability the platform registers by default.
func PlatformCapabilities() []string {
	return []string{
		CapRidesRequest,
		CapRidesView,
		CapRidesPriority,
		CapVIPDataAccess,
		CapFleetManage,
		CapHotelsBook,
		CapPaymentsMethodsManage,
		CapUsersManage,
		CapAuditView,
	}
}
