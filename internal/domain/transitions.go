package domain

// Таблицы допустимых переходов. Ключ - текущий статус, значение - запрошенный статус
// и роли, которым разрешен переход. Пары вне таблицы всегда InvalidTransition

var reservationTransitions = map[ReservationStatus]map[ReservationStatus][]ActorRole{
	ReservationPending: {
		ReservationAccepted:    {RoleProvider},
		ReservationRejected:    {RoleProvider},
		ReservationRescheduled: {RoleProvider, RoleCustomer},
		ReservationCancelled:   {RoleCustomer, RoleProvider},
	},
	ReservationRescheduledPendingProviderApproval: {
		ReservationAccepted:  {RoleProvider},
		ReservationRejected:  {RoleProvider},
		ReservationCancelled: {RoleCustomer, RoleProvider},
	},
	ReservationAccepted: {
		ReservationEnRoute:   {RoleProvider},
		ReservationCancelled: {RoleCustomer, RoleProvider},
	},
	ReservationRescheduled: {
		ReservationEnRoute:   {RoleProvider},
		ReservationCancelled: {RoleCustomer, RoleProvider},
	},
	ReservationEnRoute: {
		ReservationAwaitingPayment: {RoleProvider},
		ReservationCompleted:       {RoleProvider},
	},
	ReservationAwaitingPayment: {
		ReservationCompleted: {RoleProvider},
		// ссылка на платеж и спор не меняют статус
		ReservationAwaitingPayment: {RoleCustomer, RoleProvider},
	},
}

var orderTransitions = map[OrderStatus]map[OrderStatus][]ActorRole{
	OrderPending: {
		OrderAwaitingCustomerAgreement: {RoleShopOwner},
		OrderConfirmed:                 {RoleShopOwner},
		OrderCancelled:                 {RoleCustomer, RoleShopOwner},
	},
	OrderAwaitingCustomerAgreement: {
		OrderConfirmed: {RoleCustomer},
		OrderCancelled: {RoleCustomer, RoleShopOwner},
	},
	OrderConfirmed: {
		OrderProcessing: {RoleShopOwner},
		OrderCancelled:  {RoleCustomer, RoleShopOwner},
	},
	OrderProcessing: {
		OrderPacked:    {RoleShopOwner},
		OrderCancelled: {RoleCustomer, RoleShopOwner},
	},
	OrderPacked: {
		OrderDispatched: {RoleShopOwner},
		OrderShipped:    {RoleShopOwner},
		OrderCancelled:  {RoleCustomer, RoleShopOwner},
	},
	OrderDispatched: {
		OrderDelivered: {RoleShopOwner},
		OrderCancelled: {RoleCustomer, RoleShopOwner},
	},
	OrderShipped: {
		OrderDelivered: {RoleShopOwner},
		OrderCancelled: {RoleCustomer, RoleShopOwner},
	},
	OrderDelivered: {
		OrderReturned: {RoleCustomer},
	},
}

// ReservationEdge возвращает роли, которым разрешен переход, и признак наличия пары в таблице
func ReservationEdge(from, to ReservationStatus) ([]ActorRole, bool) {
	roles, ok := reservationTransitions[from][to]
	return roles, ok
}

// OrderEdge возвращает роли, которым разрешен переход, и признак наличия пары в таблице
func OrderEdge(from, to OrderStatus) ([]ActorRole, bool) {
	roles, ok := orderTransitions[from][to]
	return roles, ok
}

// ReachableReservationStatus проверяет, что в статус to можно попасть хотя бы одним ребром,
// разрешенным роли. Используется для идемпотентных повторов
func ReachableReservationStatus(to ReservationStatus, role ActorRole) bool {
	for _, edges := range reservationTransitions {
		if roles, ok := edges[to]; ok && role.in(roles) {
			return true
		}
	}
	return false
}

// ReachableOrderStatus аналог ReachableReservationStatus для заказов
func ReachableOrderStatus(to OrderStatus, role ActorRole) bool {
	for _, edges := range orderTransitions {
		if roles, ok := edges[to]; ok && role.in(roles) {
			return true
		}
	}
	return false
}

// RoleAllowed проверяет вхождение роли в список
func RoleAllowed(role ActorRole, roles []ActorRole) bool {
	return role.in(roles)
}
