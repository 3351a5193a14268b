// Package api exposes the collection endpoints over HTTP. Every response
// body carries a "code" field mirroring the outcome, 204 means the crawl
// ran but found nothing.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stock-fetch/internal/middleware/logger"
	"stock-fetch/internal/stock_fetch/export"
	"stock-fetch/internal/stock_fetch/helper"
	"stock-fetch/internal/stock_fetch/model"
	"stock-fetch/internal/stock_fetch/processor"
)

const dateLayout = "2006-01-02"

type Server struct {
	Log      *zap.Logger
	Naver    *processor.Naver
	Toss     *processor.Toss
	Location *time.Location
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.Gin(s.Log))

	r.GET("/", s.welcome)
	api := r.Group("/api")
	api.POST("/naver/discussions/manual", s.naverManual)
	api.POST("/naver/discussions/batch", s.naverBatch)
	api.POST("/toss/post-comments/manual", s.tossManual)
	// scheduled is an alias kept for the batch trigger; same collection path
	api.POST("/toss/post-comments/scheduled", s.tossManual)
	return r
}

func (s *Server) welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "stock discussion collector",
	})
}

type naverManualBody struct {
	StockCode string `json:"stock_code" binding:"required"`
	StockName string `json:"stock_name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type naverBatchBody struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type tossManualBody struct {
	StockCode string `json:"stock_code" binding:"required"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (s *Server) naverManual(c *gin.Context) {
	var body naverManualBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	dr, err := s.dateRange(body.StartDate, body.EndDate)
	if err != nil {
		badRequest(c, err)
		return
	}

	result, err := s.Naver.Collect(c.Request.Context(), body.StockCode, body.StockName, dr.start, dr.end)
	if err != nil {
		s.collectError(c, body.StockCode, dr, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":          200,
		"message":       "discussion collection and upload finished",
		"stock_code":    result.EntityCode,
		"stock_name":    result.EntityName,
		"start_date":    dr.startKey,
		"end_date":      dr.endKey,
		"total_records": result.TotalRecords,
		"partitions":    len(result.Partitions),
		"urls":          result.URIs(),
	})
}

func (s *Server) naverBatch(c *gin.Context) {
	var body naverBatchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	dr, err := s.dateRange(body.StartDate, body.EndDate)
	if err != nil {
		badRequest(c, err)
		return
	}

	report, err := s.Naver.CollectAll(c.Request.Context(), dr.start, dr.end)
	if err != nil {
		s.Log.Error("Batch collection aborted", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": fmt.Sprintf("batch collection aborted: %v", err),
		})
		return
	}
	if report.TotalStocks == 0 {
		c.JSON(http.StatusOK, gin.H{
			"code":         204,
			"message":      "no target stocks in the catalog",
			"total_stocks": 0,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":          200,
		"message":       "batch collection finished",
		"start_date":    dr.startKey,
		"end_date":      dr.endKey,
		"total_stocks":  report.TotalStocks,
		"success_count": report.SuccessCount,
		"fail_count":    report.FailCount,
		"results":       report.Results,
	})
}

func (s *Server) tossManual(c *gin.Context) {
	var body tossManualBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	dr, err := s.dateRange(body.StartDate, body.EndDate)
	if err != nil {
		badRequest(c, err)
		return
	}

	result, err := s.Toss.Collect(c.Request.Context(), body.StockCode, dr.start, dr.end)
	if err != nil {
		s.collectError(c, body.StockCode, dr, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":          200,
		"message":       "comment collection and upload finished",
		"stock_code":    result.EntityCode,
		"stock_name":    result.EntityName,
		"start_date":    dr.startKey,
		"end_date":      dr.endKey,
		"total_records": result.TotalRecords,
		"partitions":    len(result.Partitions),
		"urls":          result.URIs(),
	})
}

// collectError maps the collection error taxonomy onto response bodies.
func (s *Server) collectError(c *gin.Context, stockCode string, dr dateRange, err error) {
	var siteErr *model.SiteError
	var upErr *export.UploadError

	switch {
	case errors.Is(err, export.ErrEmptyInput):
		c.JSON(http.StatusOK, gin.H{
			"code":          204,
			"message":       fmt.Sprintf("[%s] no posts collected", stockCode),
			"stock_code":    stockCode,
			"start_date":    dr.startKey,
			"end_date":      dr.endKey,
			"total_records": 0,
		})
	case errors.Is(err, helper.ErrStockNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":       404,
			"message":    fmt.Sprintf("stock %s not found in the catalog", stockCode),
			"stock_code": stockCode,
		})
	case errors.As(err, &upErr):
		s.Log.Error("Upload failed mid-run",
			zap.String("stock", stockCode),
			zap.Int("completed", len(upErr.Completed)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":                 500,
			"message":              fmt.Sprintf("upload failed: %v", upErr.Err),
			"stock_code":           stockCode,
			"completed_partitions": upErr.Completed,
		})
	case errors.As(err, &siteErr):
		s.Log.Error("Collection failed",
			zap.String("stock", stockCode),
			zap.Error(err),
		)
		status := siteErr.Code
		if status < 400 || status > 599 {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{
			"code":       siteErr.Code,
			"message":    siteErr.Message,
			"stock_code": stockCode,
		})
	default:
		s.Log.Error("Collection failed",
			zap.String("stock", stockCode),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":       500,
			"message":    fmt.Sprintf("internal server error: %v", err),
			"stock_code": stockCode,
		})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    400,
		"message": err.Error(),
	})
}

type dateRange struct {
	start, end       time.Time
	startKey, endKey string
}

// dateRange applies the request defaults: start = 7 days ago, end =
// today. The literal "string" guards against Swagger's placeholder body.
// end is inclusive of the whole day.
func (s *Server) dateRange(startStr, endStr string) (dateRange, error) {
	today := time.Now().In(s.Location)

	if startStr == "" || startStr == "string" {
		startStr = today.AddDate(0, 0, -7).Format(dateLayout)
	}
	if endStr == "" || endStr == "string" {
		endStr = today.Format(dateLayout)
	}

	start, err := time.ParseInLocation(dateLayout, startStr, s.Location)
	if err != nil {
		return dateRange{}, fmt.Errorf("bad start_date %q: %w", startStr, err)
	}
	end, err := time.ParseInLocation(dateLayout, endStr, s.Location)
	if err != nil {
		return dateRange{}, fmt.Errorf("bad end_date %q: %w", endStr, err)
	}
	if end.Before(start) {
		return dateRange{}, fmt.Errorf("end_date %s precedes start_date %s", endStr, startStr)
	}

	return dateRange{
		start:    start,
		end:      end.AddDate(0, 0, 1).Add(-time.Second),
		startKey: startStr,
		endKey:   endStr,
	}, nil
}
