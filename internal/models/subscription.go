package models

import "time"

// Статусы подписки.
const (
	StatusActive    = "active"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// ValidStatus проверяет, входит ли статус в перечисление схемы.
func ValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Subscription строка таблицы subscriptions.
type Subscription struct {
	SubscriptionID string    `json:"subscription_id"`
	UserID         string    `json:"user_id"`
	PlanID         string    `json:"plan_id"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SubscriptionDetails подписка, дополненная данными плана для ответа клиенту.
// Поля плана не хранятся в subscriptions.
type SubscriptionDetails struct {
	Subscription
	PlanName     string   `json:"plan_name"`
	PlanPrice    Money    `json:"plan_price"`
	PlanFeatures []string `json:"plan_features"`
	DurationDays int      `json:"duration_days"`
}

// ActiveSubscriptionRow результат join subscriptions+plans до разбора фич.
type ActiveSubscriptionRow struct {
	Subscription
	PlanName     string
	PlanPrice    Money
	PlanFeatures []byte
	DurationDays int
}

// AdminSubscription строка админского списка: подписка + пользователь + план.
type AdminSubscription struct {
	Subscription
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	PlanName  string `json:"plan_name"`
	PlanPrice Money  `json:"plan_price"`
}

// SubscriptionFilter параметры выборки для админского списка.
type SubscriptionFilter struct {
	Status string // пусто: без фильтра
	Limit  int
	Offset int
}

// Pagination метаданные страницы.
type Pagination struct {
	Current      int `json:"current"`
	Total        int `json:"total"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
}

// SubscriptionPage страница админского списка.
type SubscriptionPage struct {
	Subscriptions []AdminSubscription `json:"subscriptions"`
	Pagination    Pagination          `json:"pagination"`
}

// SubscriptionEvent сообщение о смене состояния подписки для брокера.
type SubscriptionEvent struct {
	SubscriptionID string    `json:"subscription_id"`
	UserID         string    `json:"user_id"`
	PlanID         string    `json:"plan_id"`
	Status         string    `json:"status"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	OccurredAt     time.Time `json:"occurred_at"`
}
