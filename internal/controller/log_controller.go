package controller

import (
	"errors"
	"fmt"
	"jsonweblog/internal/dto"
	"jsonweblog/internal/filter"
	"jsonweblog/internal/model"
	"jsonweblog/internal/service"
	"jsonweblog/internal/util"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type LogController struct {
	logQueryService service.LogQueryService
	statsService    service.StatsService
}

func NewLogController(logQueryService service.LogQueryService, statsService service.StatsService) *LogController {
	return &LogController{
		logQueryService: logQueryService,
		statsService:    statsService,
	}
}

func RegisterLogRoutes(router *gin.Engine, controller *LogController) {
	api := router.Group("/api")
	{
		api.GET("/logs", controller.GetLogs)
		api.POST("/logs/clear", controller.ClearLogs)
		api.GET("/stats", controller.GetStats)
		api.GET("/archive/logs", controller.SearchArchive)
	}
}

// parseLogFilter reads the shared filter parameters. Empty parameters are
// ignored; an unrecognised level resolves to INFO.
func parseLogFilter(ctx *gin.Context) (*filter.LogFilter, error) {
	f := filter.New()

	if level := strings.TrimSpace(ctx.Query("level")); level != "" {
		f.WithLevel(model.ParseLevel(level))
	}
	if search := ctx.Query("search"); search != "" {
		f.WithSearchText(search)
	}
	if logger := ctx.Query("logger"); logger != "" {
		f.WithLogger(logger)
	}
	if module := ctx.Query("module"); module != "" {
		f.WithModule(module)
	}

	startTimeStr := strings.TrimSpace(ctx.Query("startTime"))
	endTimeStr := strings.TrimSpace(ctx.Query("endTime"))
	if startTimeStr != "" {
		start, err := util.ParseTimeFlexible(startTimeStr)
		if err != nil {
			return nil, fmt.Errorf("startTime: %w", err)
		}
		f.StartTime = &start
	}
	if endTimeStr != "" {
		end, err := util.ParseTimeFlexible(endTimeStr)
		if err != nil {
			return nil, fmt.Errorf("endTime: %w", err)
		}
		f.EndTime = &end
	}

	return f, nil
}

// GetLogs godoc
// @Summary      Query the in-memory log window
// @Description  Filters the retained records. All parameters are optional and combined with AND. With limit, only the most recent matches are returned, in arrival order.
// @Tags         logs
// @Produce      json
// @Param        level      query     string  false  "Exact level (TRACE, DEBUG, INFO, WARN, ERROR, FATAL); unknown values mean INFO"
// @Param        search     query     string  false  "Case-insensitive substring of message, logger, module or function"
// @Param        logger     query     string  false  "Substring of the logger name"
// @Param        module     query     string  false  "Substring of the module; records without a module never match"
// @Param        startTime  query     string  false  "Inclusive lower bound, RFC 3339 or epoch milliseconds"
// @Param        endTime    query     string  false  "Inclusive upper bound, RFC 3339 or epoch milliseconds"
// @Param        limit      query     int     false  "Keep only the most recent N matches" minimum(0)
// @Success      200        {object}  dto.LogQueryResponse
// @Failure      400        {object}  model.Response "Invalid query parameters"
// @Router       /api/logs [get]
func (c *LogController) GetLogs(ctx *gin.Context) {
	f, err := parseLogFilter(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid startTime or endTime format. Use RFC 3339 or epoch milliseconds.", nil))
		return
	}

	req := dto.LogQueryRequest{Filter: f}
	if limitStr := strings.TrimSpace(ctx.Query("limit")); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid limit. Use a non-negative integer.", nil))
			return
		}
		req.Limit = &limit
	}

	result, err := c.logQueryService.QueryLogs(req)
	if err != nil {
		if errors.Is(err, service.ErrNegativeLimit) {
			ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid limit. Use a non-negative integer.", nil))
			return
		}
		log.Error().Err(err).Msg("Error querying logs")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Failed to query logs", nil))
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// ClearLogs godoc
// @Summary      Clear the in-memory log window
// @Description  Removes every retained record. The schema and column layout are kept.
// @Tags         logs
// @Success      200
// @Router       /api/logs/clear [post]
func (c *LogController) ClearLogs(ctx *gin.Context) {
	c.logQueryService.ClearLogs()
	ctx.Status(http.StatusOK)
}

// GetStats godoc
// @Summary      Runtime statistics
// @Tags         logs
// @Produce      json
// @Success      200  {object}  dto.StatsResponse
// @Router       /api/stats [get]
func (c *LogController) GetStats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.statsService.Stats())
}

// SearchArchive godoc
// @Summary      Search archived logs
// @Description  Searches records archived to Elasticsearch with the same filter parameters as /api/logs. Newest matches first by page, each page in arrival order.
// @Tags         logs
// @Produce      json
// @Param        level      query     string  false  "Exact level"
// @Param        search     query     string  false  "Case-insensitive substring of message, logger, module or function"
// @Param        logger     query     string  false  "Substring of the logger name"
// @Param        module     query     string  false  "Substring of the module"
// @Param        startTime  query     string  false  "Inclusive lower bound, RFC 3339 or epoch milliseconds"
// @Param        endTime    query     string  false  "Inclusive upper bound, RFC 3339 or epoch milliseconds"
// @Param        page       query     int     false  "Page number (default: 1)" minimum(1)
// @Param        size       query     int     false  "Records per page (default: 100, max: 1000)" minimum(1) maximum(1000)
// @Success      200        {object}  dto.ArchiveSearchResponse
// @Failure      400        {object}  model.Response "Invalid query parameters"
// @Failure      500        {object}  model.Response "Internal server error"
// @Failure      503        {object}  model.Response "Archive not configured"
// @Router       /api/archive/logs [get]
func (c *LogController) SearchArchive(ctx *gin.Context) {
	f, err := parseLogFilter(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid startTime or endTime format. Use RFC 3339 or epoch milliseconds.", nil))
		return
	}

	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(ctx.DefaultQuery("size", "100"))
	if err != nil {
		size = 0
	}

	result, err := c.logQueryService.SearchArchive(ctx.Request.Context(), dto.ArchiveSearchRequest{
		Filter: f,
		Page:   page,
		Size:   size,
	})
	if err != nil {
		if errors.Is(err, service.ErrArchiveDisabled) {
			ctx.JSON(http.StatusServiceUnavailable, model.NewResponse("Archive search is not enabled", nil))
			return
		}
		log.Error().Err(err).Msg("Error searching archive")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Failed to search archive", nil))
		return
	}

	ctx.JSON(http.StatusOK, result)
}
