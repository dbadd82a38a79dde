package controller

import (
	"jsonweblog/internal/dto"
	"jsonweblog/internal/model"
	"jsonweblog/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type SchemaController struct {
	layoutService service.LayoutService
}

func NewSchemaController(layoutService service.LayoutService) *SchemaController {
	return &SchemaController{
		layoutService: layoutService,
	}
}

func RegisterSchemaRoutes(router *gin.Engine, controller *SchemaController) {
	api := router.Group("/api/schema")
	{
		api.GET("", controller.GetSchema)
		api.GET("/columns", controller.GetColumns)
		api.POST("/columns", controller.SetColumns)
	}
}

// GetSchema godoc
// @Summary      Discovered field schema
// @Description  Field names of the first stored record in first-seen order. Fixed once initialized.
// @Tags         schema
// @Produce      json
// @Success      200  {object}  model.Schema
// @Router       /api/schema [get]
func (c *SchemaController) GetSchema(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.layoutService.Schema())
}

// GetColumns godoc
// @Summary      Column layout
// @Description  The saved layout, else a default derived from the schema, else null.
// @Tags         schema
// @Produce      json
// @Success      200  {object}  model.TableLayout
// @Router       /api/schema/columns [get]
func (c *SchemaController) GetColumns(ctx *gin.Context) {
	layout := c.layoutService.GetLayout()
	if layout == nil {
		ctx.JSON(http.StatusOK, nil)
		return
	}
	ctx.JSON(http.StatusOK, layout)
}

// SetColumns godoc
// @Summary      Replace the column layout
// @Description  Replaces the whole layout in memory and persists it. On a persistence failure the new layout stays applied and is returned with status 500.
// @Tags         schema
// @Accept       json
// @Produce      json
// @Param        request  body      dto.SetColumnsRequest  true  "New layout"
// @Success      200      {object}  model.TableLayout
// @Failure      400      {object}  model.Response "Invalid request body"
// @Failure      500      {object}  model.Response{data=model.TableLayout} "Layout applied but not persisted"
// @Router       /api/schema/columns [post]
func (c *SchemaController) SetColumns(ctx *gin.Context) {
	var req dto.SetColumnsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid request body: "+err.Error(), nil))
		return
	}

	applied, err := c.layoutService.SetLayout(ctx.Request.Context(), &model.TableLayout{
		Theme:   req.Theme,
		Columns: req.Columns,
	})
	if err != nil {
		log.Error().Err(err).Msg("Error saving column layout")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Layout applied but could not be saved", applied))
		return
	}

	ctx.JSON(http.StatusOK, applied)
}
