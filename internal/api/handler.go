package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stylist-service/internal/models"
	"stylist-service/internal/service"
	"stylist-service/internal/store"
	"stylist-service/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	recommendService *service.RecommendService
	ingestService    *service.IngestService
	store            *store.Store
	adminKey         string
	proxyClient      *http.Client
}

// NewHandler creates a new HTTP handler
func NewHandler(
	recommendService *service.RecommendService,
	ingestService *service.IngestService,
	store *store.Store,
	adminKey string,
) *Handler {
	return &Handler{
		recommendService: recommendService,
		ingestService:    ingestService,
		store:            store,
		adminKey:         adminKey,
		proxyClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	// Browser clients fetch straight from the storefront widget; keep the
	// permissive policy the frontends depend on.
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "X-Admin-Key"},
	}))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/recommend", h.recommend)
	router.GET("/products", h.listProducts)
	router.GET("/image-proxy", h.imageProxy)

	admin := router.Group("/admin")
	{
		admin.POST("/refresh", h.refresh)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// recommend serves product recommendations. The response always carries a
// non-empty results array; the pipeline falls back to a placeholder record.
func (h *Handler) recommend(c *gin.Context) {
	req := service.RecommendRequest{
		Style:     c.Query("style"),
		Lifestyle: c.Query("lifestyle"),
	}

	if raw := c.Query("budget"); raw != "" {
		budget, err := strconv.ParseFloat(raw, 64)
		if err != nil || budget < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid budget"})
			return
		}
		req.Budget = &budget
	}

	if raw := c.Query("brands"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				req.Brands = append(req.Brands, b)
			}
		}
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		req.Limit = limit
	}

	results, err := h.recommendService.Recommend(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to build recommendations",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// refresh triggers a full re-ingest across all configured sources
func (h *Handler) refresh(c *gin.Context) {
	if h.adminKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Refresh is not configured"})
		return
	}
	if c.GetHeader("X-Admin-Key") != h.adminKey {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin key"})
		return
	}

	count, err := h.ingestService.Ingest(c.Request.Context(), nil, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Refresh failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ingested_count": count})
}

// listProducts dumps stored products. Debugging only.
func (h *Handler) listProducts(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	products, err := h.store.ListProducts(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list products",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(products),
		"products": products,
	})
}

// imageProxy streams an external image through the backend so storefront
// images render despite hotlink protection. Upstream failures degrade to the
// placeholder image.
func (h *Handler) imageProxy(c *gin.Context) {
	target := c.Query("url")
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	resp, err := h.fetchImage(c, target)
	if err != nil {
		resp, err = h.fetchImage(c, models.PlaceholderImageURL)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch image"})
			return
		}
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	c.DataFromReader(http.StatusOK, resp.ContentLength, contentType, resp.Body, nil)
}

func (h *Handler) fetchImage(c *gin.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.proxyClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}
	return resp, nil
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
