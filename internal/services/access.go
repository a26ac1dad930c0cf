package services

// Ownable is implemented by every entity that carries an owner uid.
type Ownable interface {
	GetOwnerUID() string
}

// CanAccess is the single authorization predicate applied before an entity
// is handed to a caller. Public reads go through the visibility gate instead
// and never reach this check.
func CanAccess(uid string, resource Ownable) bool {
	if uid == "" {
		return false
	}
	return resource.GetOwnerUID() == uid
}
