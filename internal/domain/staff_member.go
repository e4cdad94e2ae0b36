package domain

// StaffRole names a staff directory role. Rules target roles by name, so
// values other than the constants below are allowed.
type StaffRole string

const (
	StaffRoleUser    StaffRole = "User"
	StaffRoleITStaff StaffRole = "IT_Staff"
	StaffRoleAdmin   StaffRole = "Admin"
)

// StaffMember is a staff directory entry with its current workload.
type StaffMember struct {
	ID          int64
	Name        string
	Email       string
	Role        StaffRole
	Active      bool
	OpenTickets int
}
