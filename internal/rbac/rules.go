package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"reviewer": {
		"question:view",
		"archive:view",
		"asset:view",
	},
	"teacher": {
		"question:import",
		"question:view",
		"archive:view",
		"asset:view",
	},
	"admin": {
		"*", // everything
	},
}
