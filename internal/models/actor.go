package models

// Actor: пользователь, от имени которого выполняется запрос.
type Actor struct {
	UserID      uint
	IsStaff     bool
	IsSuperuser bool
}

func ActorFor(u *User) Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{UserID: u.ID, IsStaff: u.IsStaff, IsSuperuser: u.IsSuperuser}
}

// CanEdit: может ли actor создавать, менять и блокировать заявки.
func (a Actor) CanEdit() bool {
	return a.UserID != 0 && (a.IsStaff || a.IsSuperuser)
}
