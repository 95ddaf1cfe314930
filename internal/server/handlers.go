package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"cafeteria-planner/internal/app"
	"cafeteria-planner/internal/auth"
	"cafeteria-planner/internal/catalog"
	"cafeteria-planner/internal/export"
	"cafeteria-planner/internal/history"
	"cafeteria-planner/internal/menu"
	"cafeteria-planner/internal/order"
	"cafeteria-planner/internal/recipe"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type calculateRequest struct {
	Menu      menu.WeeklyMenu `json:"menu"`
	Headcount *int            `json:"headcount"`
	Day       menu.DayFilter  `json:"day"`
	Save      bool            `json:"save"`
}

type recipeResponse struct {
	Index  int            `json:"index"`
	Origin catalog.Origin `json:"origin"`
	recipe.Recipe
}

func (s *Server) listRecipes(c *gin.Context) {
	var category recipe.Category
	if raw := c.Query("category"); raw != "" {
		cat, err := recipe.NormalizeCategory(raw)
		if err != nil {
			writeError(c, err)
			return
		}
		category = cat
	}

	out := []recipeResponse{}
	for i, e := range s.app.Recipes() {
		if category != "" && e.Category != category {
			continue
		}
		out = append(out, recipeResponse{Index: i, Origin: e.Origin, Recipe: e.Recipe})
	}
	c.JSON(http.StatusOK, out)
}

func bindRecipe(c *gin.Context) (recipe.Recipe, bool) {
	var raw recipe.Raw
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return recipe.Recipe{}, false
	}
	r, err := recipe.Normalize(raw)
	if err != nil {
		writeError(c, err)
		return recipe.Recipe{}, false
	}
	return r, true
}

func (s *Server) addRecipe(c *gin.Context) {
	r, ok := bindRecipe(c)
	if !ok {
		return
	}
	if err := s.app.AddRecipe(c.Request.Context(), r); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (s *Server) replaceRecipe(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}
	r, ok := bindRecipe(c)
	if !ok {
		return
	}
	if err := s.app.ReplaceRecipe(c.Request.Context(), index, r); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) removeRecipe(c *gin.Context) {
	if err := s.app.RemoveRecipe(c.Request.Context(), c.Param("name")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) runCalculation(c *gin.Context) (order.Result, bool) {
	var req calculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return order.Result{}, false
	}
	if req.Headcount == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "headcount is required"})
		return order.Result{}, false
	}

	res, _, err := s.app.Calculate(c.Request.Context(), app.CalculateRequest{
		UserID:    auth.UserID(c),
		Source:    app.SourceAPI,
		Menu:      req.Menu,
		Headcount: *req.Headcount,
		Day:       req.Day,
		Save:      req.Save,
	})
	if err != nil {
		writeError(c, err)
		return order.Result{}, false
	}
	return res, true
}

func (s *Server) calculate(c *gin.Context) {
	res, ok := s.runCalculation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) exportOrder(c *gin.Context) {
	res, ok := s.runCalculation(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteOrder(&buf, res.Items); err != nil {
		writeError(c, err)
		return
	}
	sendWorkbook(c, export.OrderFileName, buf.Bytes())
}

func (s *Server) loadHistory(c *gin.Context) ([]history.Record, bool) {
	rng, err := history.ParseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	recs, err := s.app.History(c.Request.Context(), auth.UserID(c), rng)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return recs, true
}

func (s *Server) listHistory(c *gin.Context) {
	recs, ok := s.loadHistory(c)
	if !ok {
		return
	}
	if recs == nil {
		recs = []history.Record{}
	}
	c.JSON(http.StatusOK, recs)
}

func (s *Server) exportHistory(c *gin.Context) {
	recs, ok := s.loadHistory(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteHistory(&buf, recs); err != nil {
		writeError(c, err)
		return
	}
	sendWorkbook(c, export.HistoryFileName, buf.Bytes())
}

func sendWorkbook(c *gin.Context, name string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, export.ContentType, data)
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, recipe.ErrInvalidRecipe),
		errors.Is(err, recipe.ErrUnknownCategory),
		errors.Is(err, order.ErrNegativeHeadcount),
		errors.Is(err, menu.ErrUnknownWeekday),
		errors.Is(err, menu.ErrUnknownSlot):
		status = http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, catalog.ErrIndexOutside):
		status = http.StatusNotFound
	case errors.Is(err, app.ErrHistoryDisabled):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
