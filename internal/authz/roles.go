package authz

// Portal roles. Public registration always creates a client account;
// staff roles are assigned by an administrator out of band.
const (
	RoleClient      = 10
	RoleLawyer      = 20
	RoleCoordinator = 30
	RoleAdmin       = 40
)
