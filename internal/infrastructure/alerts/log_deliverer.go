package alerts

import (
	"context"

	"github.com/jhoicas/despensa-api/internal/application/ports"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/pkg/logger"
)

var _ ports.AlertDeliverer = (*LogDeliverer)(nil)

// LogDeliverer entrega alertas escribiéndolas en el log (ALERTS_DELIVERY=log).
type LogDeliverer struct {
	log *logger.Logger
}

func NewLogDeliverer(log *logger.Logger) *LogDeliverer {
	return &LogDeliverer{log: log.Component("alerts")}
}

func (d *LogDeliverer) Deliver(_ context.Context, c entity.AlertContent) error {
	d.log.Info().
		Str("user_id", c.UserID).
		Str("stock_item_id", c.StockItemID).
		Str("priority", c.Priority).
		Bool("urgent", c.Urgent).
		Str("title", c.Title).
		Msg(c.Body)
	return nil
}
