package domain

// ActorRole роль участника, инициирующего изменение
type ActorRole string

const (
	RoleCustomer  ActorRole = "customer"
	RoleProvider  ActorRole = "provider"
	RoleShopOwner ActorRole = "shop_owner"
	RoleSystem    ActorRole = "system" // планировщик истечения
)

// Actor участник запроса (аутентификация вне ядра)
type Actor struct {
	ID   int64
	Role ActorRole
}

// IsValid проверяет, что роль известна
func (r ActorRole) IsValid() bool {
	switch r {
	case RoleCustomer, RoleProvider, RoleShopOwner, RoleSystem:
		return true
	}
	return false
}

func (r ActorRole) in(roles []ActorRole) bool {
	for _, role := range roles {
		if role == r {
			return true
		}
	}
	return false
}
