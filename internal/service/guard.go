package service

import "github.com/iliyamo/car-rental-marketplace/internal/model"

// Identity is the authenticated caller as established by the JWT middleware.
type Identity struct {
	ID   uint64
	Role string
}

func (i Identity) IsAdmin() bool { return i.Role == model.RoleAdmin }

// CanManage reports whether the caller may mutate a resource owned by hostID.
func CanManage(id Identity, hostID uint64) bool {
	return id.ID == hostID || id.IsAdmin()
}

// CanAccessBooking admits the renter, the car's host and admins.
func CanAccessBooking(id Identity, b *model.Booking) bool {
	return id.ID == b.UserID || CanManage(id, b.HostID)
}
