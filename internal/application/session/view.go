package session

import (
	"time"

	"github.com/jhoicas/despensa-api/internal/application/dto"
	"github.com/jhoicas/despensa-api/internal/domain/depletion"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
)

// StockView ítem con su evaluación en el instante de la última derivación.
type StockView struct {
	Item entity.StockItem
	Eval depletion.Evaluation
}

// ListView lista con sus ítems según el último snapshot de su subcolección.
type ListView struct {
	List  entity.GroceryList
	Items []entity.ListItem
}

// View estado derivado de una sesión. Se reconstruye completo en cada snapshot o Refresh.
type View struct {
	Stock         []StockView
	Lists         []ListView
	Notifications []entity.Notification
	UnseenCount   int
	LowCount      int
	ExpiredCount  int
	// Stale true si alguna suscripción falló: los datos son los últimos conocidos.
	Stale     bool
	UpdatedAt time.Time
}

// DTO mapea la vista a la respuesta del dashboard.
func (v View) DTO() dto.DashboardDTO {
	out := dto.DashboardDTO{
		Stock:         make([]dto.StockItemDTO, 0, len(v.Stock)),
		Lists:         make([]dto.GroceryListDTO, 0, len(v.Lists)),
		Notifications: make([]dto.NotificationDTO, 0, len(v.Notifications)),
		UnseenCount:   v.UnseenCount,
		LowCount:      v.LowCount,
		ExpiredCount:  v.ExpiredCount,
		Stale:         v.Stale,
		UpdatedAt:     v.UpdatedAt,
	}
	for _, s := range v.Stock {
		out.Stock = append(out.Stock, dto.NewStockItemDTO(s.Item, s.Eval))
	}
	for _, l := range v.Lists {
		out.Lists = append(out.Lists, dto.NewGroceryListDTO(l.List, l.Items))
	}
	for _, n := range v.Notifications {
		out.Notifications = append(out.Notifications, dto.NewNotificationDTO(n))
	}
	return out
}

func derive(stock []entity.StockItem, lists []entity.GroceryList, items map[string][]entity.ListItem,
	notifications []entity.Notification, stale bool, now time.Time) View {
	v := View{
		Stock:         make([]StockView, 0, len(stock)),
		Lists:         make([]ListView, 0, len(lists)),
		Notifications: append([]entity.Notification(nil), notifications...),
		Stale:         stale,
		UpdatedAt:     now,
	}
	for _, it := range stock {
		ev := depletion.Evaluate(it, now)
		switch ev.Status {
		case depletion.StatusLow:
			v.LowCount++
		case depletion.StatusExpired:
			v.ExpiredCount++
		}
		v.Stock = append(v.Stock, StockView{Item: it, Eval: ev})
	}
	for _, l := range lists {
		v.Lists = append(v.Lists, ListView{List: l, Items: append([]entity.ListItem(nil), items[l.ID]...)})
	}
	for _, n := range notifications {
		if !n.Seen {
			v.UnseenCount++
		}
	}
	return v
}
