package notice_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/internal/infrastructure/notice"
	"github.com/jhoicas/despensa-api/pkg/logger"
)

func TestFeed_DrainDevuelveYVacia(t *testing.T) {
	f := notice.NewFeed(logger.Nop(), 0)
	f.Notify(context.Background(), "u1", entity.NoticeSuccess, "Stock agregado", "")
	f.Notify(context.Background(), "u2", entity.NoticeError, "Error", "detalle")

	got := f.Drain("u1")
	require.Len(t, got, 1)
	assert.Equal(t, entity.NoticeSuccess, got[0].Kind)
	assert.Equal(t, "Stock agregado", got[0].Title)

	assert.Empty(t, f.Drain("u1"))
	assert.Len(t, f.Drain("u2"), 1, "buzones separados por usuario")
}

func TestFeed_DescartaLosMasViejos(t *testing.T) {
	f := notice.NewFeed(logger.Nop(), 3)
	for i := 0; i < 5; i++ {
		f.Notify(context.Background(), "u1", entity.NoticeInfo, fmt.Sprintf("n%d", i), "")
	}

	got := f.Drain("u1")
	require.Len(t, got, 3)
	assert.Equal(t, "n2", got[0].Title)
	assert.Equal(t, "n4", got[2].Title)
}
