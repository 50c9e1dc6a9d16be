package docrepo

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/internal/domain/repository"
)

// Nombres de campos persistidos.
const (
	fName                 = "name"
	fQuantity             = "quantity"
	fUnit                 = "unit"
	fExpectedDurationDays = "expectedDurationDays"
	fStartDate            = "startDate"
	fDepletionDate        = "depletionDate"
	fReminderScheduledAt  = "reminderScheduledAt"
	fReminderID           = "reminderId"
	fImageURL             = "imageUrl"

	fStockItemID   = "stockItemId"
	fItemName      = "itemName"
	fMessage       = "message"
	fDaysRemaining = "daysRemaining"
	fIsExpired     = "isExpired"
	fSeen          = "seen"
	fCreatedAt     = "createdAt"

	fCompletedCount = "completedCount"
	fIsLiked        = "isLiked"
	fStockAdded     = "stockAdded"
)

// ── stock ─────────────────────────────────────────────────────────────────────

func stockFields(item entity.StockItem) map[string]any {
	return map[string]any{
		fName:                 item.Name,
		fQuantity:             item.Quantity.String(),
		fUnit:                 item.Unit,
		fExpectedDurationDays: item.ExpectedDurationDays,
		fStartDate:            item.StartAt.UTC(),
		fDepletionDate:        item.DepletionAt.UTC(),
		fReminderScheduledAt:  item.ReminderAt.UTC(),
		fReminderID:           handleValue(item.ReminderID),
		fImageURL:             item.ImageURL,
	}
}

func handleValue(h entity.ReminderHandle) any {
	if h == "" {
		return nil
	}
	return string(h)
}

func decodeStock(userID string, d repository.Document) entity.StockItem {
	return entity.StockItem{
		ID:                   d.ID,
		UserID:               userID,
		Name:                 str(d.Data, fName),
		Quantity:             dec(d.Data, fQuantity),
		Unit:                 str(d.Data, fUnit),
		ExpectedDurationDays: integer(d.Data, fExpectedDurationDays),
		StartAt:              instant(d.Data, fStartDate),
		DepletionAt:          instant(d.Data, fDepletionDate),
		ReminderAt:           instant(d.Data, fReminderScheduledAt),
		ReminderID:           entity.ReminderHandle(str(d.Data, fReminderID)),
		ImageURL:             str(d.Data, fImageURL),
	}
}

// ── notifications ─────────────────────────────────────────────────────────────

func notificationFields(n entity.Notification) map[string]any {
	return map[string]any{
		fStockItemID:   n.StockItemID,
		fItemName:      n.ItemName,
		fMessage:       n.Message,
		fDaysRemaining: n.DaysRemaining,
		fIsExpired:     n.IsExpired,
		fSeen:          n.Seen,
		fCreatedAt:     n.CreatedAt.UTC(),
	}
}

func decodeNotification(d repository.Document) entity.Notification {
	return entity.Notification{
		ID:            d.ID,
		StockItemID:   str(d.Data, fStockItemID),
		ItemName:      str(d.Data, fItemName),
		Message:       str(d.Data, fMessage),
		DaysRemaining: integer(d.Data, fDaysRemaining),
		IsExpired:     boolean(d.Data, fIsExpired),
		Seen:          boolean(d.Data, fSeen),
		CreatedAt:     instant(d.Data, fCreatedAt),
	}
}

// ── lists ─────────────────────────────────────────────────────────────────────

func listFields(l entity.GroceryList) map[string]any {
	return map[string]any{
		fName:      l.Name,
		fCreatedAt: l.CreatedAt.UTC(),
	}
}

func decodeList(d repository.Document) entity.GroceryList {
	return entity.GroceryList{
		ID:        d.ID,
		Name:      str(d.Data, fName),
		CreatedAt: instant(d.Data, fCreatedAt),
	}
}

func listItemFields(li entity.ListItem) map[string]any {
	return map[string]any{
		fName:                 li.Name,
		fQuantity:             li.Quantity.String(),
		fUnit:                 li.Unit,
		fExpectedDurationDays: li.ExpectedDurationDays,
		fCompletedCount:       li.CompletedCount,
		fIsLiked:              li.IsLiked,
		fStockAdded:           li.StockAdded,
	}
}

func decodeListItem(listID string, d repository.Document) entity.ListItem {
	return entity.ListItem{
		ID:                   d.ID,
		ListID:               listID,
		Name:                 str(d.Data, fName),
		Quantity:             dec(d.Data, fQuantity),
		Unit:                 str(d.Data, fUnit),
		ExpectedDurationDays: integer(d.Data, fExpectedDurationDays),
		CompletedCount:       integer(d.Data, fCompletedCount),
		IsLiked:              boolean(d.Data, fIsLiked),
		StockAdded:           boolean(d.Data, fStockAdded),
	}
}

// ── lectores tolerantes ───────────────────────────────────────────────────────
// Los documentos pueden venir de Firestore (time.Time, int64), de JSONB (float64, string RFC3339)
// o escritos por otros clientes con tipos distintos. Un campo ausente o ilegible queda en cero.

func str(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case json.Number:
		return v.String()
	}
	return ""
}

func dec(m map[string]any, key string) decimal.Decimal {
	switch v := m[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case float32:
		return decimal.NewFromFloat32(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err == nil {
			return d
		}
	case string:
		d, err := decimal.NewFromString(v)
		if err == nil {
			return d
		}
	case decimal.Decimal:
		return v
	}
	return decimal.Zero
}

func integer(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err == nil {
			return int(n)
		}
		f, err := v.Float64()
		if err == nil {
			return int(f)
		}
	case string:
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return 0
}

func boolean(m map[string]any, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

func instant(m map[string]any, key string) time.Time {
	switch v := m[key].(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t
		}
	case int64:
		return time.UnixMilli(v).UTC()
	case float64:
		return time.UnixMilli(int64(v)).UTC()
	}
	return time.Time{}
}
