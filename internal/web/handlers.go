package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"priceradar/internal/deals"
	"priceradar/internal/feeds"
	"priceradar/internal/ingest"
	"priceradar/internal/models"
	"priceradar/pkg/config"

	"github.com/sirupsen/logrus"
)

func registerHandlers(e *echo.Echo, service *ingest.Service, dealService *deals.Service, fetcher *feeds.Fetcher, cfg *config.Config) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Feed import: CSV body, parsed with the dialect matching ?source=.
	e.POST("/import/feed", func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			logrus.WithError(err).Error("Failed to read feed body")
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unreadable request body"})
		}

		source := c.QueryParam("source")
		var result *ingest.ParseResult
		var parseErr error
		switch source {
		case models.SourceSheet:
			result, parseErr = ingest.ParseSheetCSV(string(body))
		default:
			source = models.SourceAffiliate
			result, parseErr = ingest.ParseCSV(string(body))
		}
		if parseErr != nil {
			// Structural failure: no summary is produced.
			status := http.StatusBadRequest
			var headerErr *ingest.HeaderError
			if !errors.Is(parseErr, ingest.ErrEmptyFile) && !errors.As(parseErr, &headerErr) {
				status = http.StatusUnprocessableEntity
			}
			logrus.WithError(parseErr).Error("Feed parse failed")
			return c.JSON(status, map[string]string{"error": parseErr.Error()})
		}

		summary := service.ImportFeed(c.Request().Context(), result.Rows, ingest.ImportOptions{
			Source:              source,
			DefaultCountry:      cfg.DefaultCountry,
			ValidateURLs:        true,
			BlockedStoreDomains: cfg.BlockedStoreDomains,
		})
		return c.JSON(http.StatusOK, map[string]interface{}{
			"summary":       summary,
			"totalDataRows": result.TotalDataRows,
			"parseSkips":    result.Skips,
		})
	})

	// Rich product import: JSON payload, bare array or {products:[...]}.
	e.POST("/import/products", func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unreadable request body"})
		}
		inputs, err := ingest.NormalizeProducts(body)
		if err != nil {
			logrus.WithError(err).Error("Invalid product payload")
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}

		summary, productIDs := service.ImportProducts(c.Request().Context(), inputs, ingest.ImportOptions{
			Source:              models.SourceManual,
			DefaultCountry:      cfg.DefaultCountry,
			ReplaceListings:     c.QueryParam("reseed") == "true",
			BlockedStoreDomains: cfg.BlockedStoreDomains,
		})
		return c.JSON(http.StatusOK, map[string]interface{}{
			"summary":    summary,
			"productIds": productIDs,
		})
	})

	// Simple ingest path: count and IDs only.
	e.POST("/ingest", func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unreadable request body"})
		}
		inputs, err := ingest.NormalizeProducts(body)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}

		result := service.IngestProducts(c.Request().Context(), inputs, ingest.ImportOptions{
			Source:         models.SourceManual,
			DefaultCountry: cfg.DefaultCountry,
		})
		return c.JSON(http.StatusOK, result)
	})

	// Remote provider fetch: one independent outcome per provider.
	e.POST("/import/providers", func(c echo.Context) error {
		outcomes := fetcher.RunAll(c.Request().Context())
		return c.JSON(http.StatusOK, map[string]interface{}{"providers": outcomes})
	})

	e.POST("/categories/reinfer", func(c echo.Context) error {
		updated, err := service.ReinferCategories(c.Request().Context())
		if err != nil {
			logrus.WithError(err).Error("Category re-inference failed")
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to re-infer categories"})
		}
		return c.JSON(http.StatusOK, map[string]int{"updated": updated})
	})

	e.DELETE("/products/demo", func(c echo.Context) error {
		deleted, err := service.CleanupDemoProducts(c.Request().Context())
		if err != nil {
			logrus.WithError(err).Error("Demo cleanup failed")
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete demo products"})
		}
		return c.JSON(http.StatusOK, map[string]int64{"deleted": deleted})
	})

	e.GET("/products/:id/deal", func(c echo.Context) error {
		deal, err := dealService.DealForProduct(c.Request().Context(), c.Param("id"))
		if err != nil {
			logrus.WithError(err).Error("Failed to compute deal")
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to compute deal"})
		}
		return c.JSON(http.StatusOK, deal)
	})

	e.POST("/deals/recompute", func(c echo.Context) error {
		updated, err := dealService.RecomputeAll(c.Request().Context())
		if err != nil {
			logrus.WithError(err).Error("Deal recompute failed")
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to recompute deals"})
		}
		return c.JSON(http.StatusOK, map[string]int{"updated": updated})
	})
}
