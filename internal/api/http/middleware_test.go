package http_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	httptransport "github.com/spec-kit/portal-gateway/internal/api/http"
	"github.com/spec-kit/portal-gateway/internal/observability"
	apperrors "github.com/spec-kit/portal-gateway/pkg/util"
)

func TestRequestLogRecordsRenderedStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.New(core), metrics, 0)
	app.Get("/denied", func(c *fiber.Ctx) error {
		return apperrors.NewMissingToken()
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/denied", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(fiber.StatusUnauthorized), entries[0].ContextMap()["status"])
}
