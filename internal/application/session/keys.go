package session

import (
	"strings"

	"github.com/jhoicas/despensa-api/internal/domain/entity"
)

type candidate struct {
	item entity.StockItem
	key  string
}

// notifiedKey identifica una alerta ya entregada al motor: "<ítem>:<tipo>".
func notifiedKey(itemID string, kind entity.AlertKind) string {
	return itemID + ":" + string(kind)
}

func itemOf(key string) string {
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}
