package dto

import "time"

// DashboardDTO respuesta de GET /api/dashboard: vista derivada de la sesión en vivo del usuario.
type DashboardDTO struct {
	Stock         []StockItemDTO    `json:"stock"`
	Lists         []GroceryListDTO  `json:"lists"`
	Notifications []NotificationDTO `json:"notifications"`

	UnseenCount  int `json:"unseen_count"`
	LowCount     int `json:"low_count"`
	ExpiredCount int `json:"expired_count"`

	// Stale indica que alguna suscripción falló y los datos son los últimos conocidos.
	Stale     bool      `json:"stale"`
	UpdatedAt time.Time `json:"updated_at"`
}
