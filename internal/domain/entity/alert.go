package entity

// AlertKind tipo de alerta de stock.
type AlertKind string

const (
	AlertLow     AlertKind = "low"
	AlertExpired AlertKind = "expired"
)

// Prioridades de entrega de alertas.
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// AlertContent contenido de una alerta local programada.
type AlertContent struct {
	UserID      string
	StockItemID string
	Title       string
	Body        string
	Urgent      bool
	Priority    string
	Data        map[string]string
}

// NoticeKind tipo de aviso de retroalimentación al usuario (toast).
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)
