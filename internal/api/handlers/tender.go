package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tenderbridge/tender-ingest/internal/ingest"
	"github.com/tenderbridge/tender-ingest/internal/models"
	"github.com/tenderbridge/tender-ingest/internal/services"
)

// TenderHandler handles tender ingestion requests
type TenderHandler struct {
	tenderService services.TenderServiceInterface
	logger        *logrus.Logger
}

// NewTenderHandler creates a new tender handler
func NewTenderHandler(tenderService services.TenderServiceInterface, logger *logrus.Logger) *TenderHandler {
	return &TenderHandler{
		tenderService: tenderService,
		logger:        logger,
	}
}

// Ingest handles one ingestion run against the configured feed
// @Summary Ingest tenders
// @Description Fetch the tender feed, normalize every record and deliver the result to a sink
// @Tags Tenders
// @Produce json
// @Param sink query string false "Delivery sink (inline, queue, stream)"
// @Param group_size query int false "Delivery group size"
// @Success 200 {object} models.IngestResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/v1/tenders [get]
func (h *TenderHandler) Ingest(c *gin.Context) {
	requestID := c.GetString("request_id")

	options, ok := h.options(c, c.Query("sink"), c.Query("group_size"))
	if !ok {
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"sink":       options.Sink,
		"group_size": options.GroupSize,
	}).Info("Processing ingestion request")

	response, err := h.tenderService.Ingest(c.Request.Context(), options)
	if err != nil {
		h.fail(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Normalize handles caller supplied raw records
// @Summary Normalize tenders
// @Description Normalize the supplied raw feed records and deliver them to a sink
// @Tags Tenders
// @Accept json
// @Produce json
// @Param request body models.IngestRequest true "Raw records"
// @Success 200 {object} models.IngestResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/tenders/normalize [post]
func (h *TenderHandler) Normalize(c *gin.Context) {
	requestID := c.GetString("request_id")

	var req models.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Invalid normalize request")

		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "Invalid request",
			Message:   err.Error(),
			Code:      "INVALID_REQUEST",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	options := services.IngestOptions{Sink: req.Sink, GroupSize: req.GroupSize}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"records":    len(req.Records),
		"sink":       options.Sink,
	}).Info("Processing normalize request")

	response, err := h.tenderService.Normalize(c.Request.Context(), req.Records, options)
	if err != nil {
		h.fail(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *TenderHandler) options(c *gin.Context, sink, groupSize string) (services.IngestOptions, bool) {
	options := services.IngestOptions{Sink: sink}
	if groupSize == "" {
		return options, true
	}

	size, err := strconv.Atoi(groupSize)
	if err != nil || size <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "Invalid group size",
			Message:   "group_size must be a positive integer",
			Code:      "INVALID_GROUP_SIZE",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return options, false
	}

	options.GroupSize = size
	return options, true
}

// fail maps service errors to HTTP responses
func (h *TenderHandler) fail(c *gin.Context, requestID string, err error) {
	status := http.StatusInternalServerError
	response := models.ErrorResponse{
		Error:     "Internal server error",
		Message:   err.Error(),
		Code:      "INTERNAL_ERROR",
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	}

	var fetchErr *ingest.FetchError
	switch {
	case errors.As(err, &fetchErr):
		status = http.StatusBadGateway
		response.Error = "Bad gateway"
		response.Message = ingest.ErrFetchFailed.Error()
		response.Code = "FETCH_FAILED"
	case errors.Is(err, services.ErrUnknownSink):
		status = http.StatusBadRequest
		response.Error = "Invalid sink"
		response.Code = "UNKNOWN_SINK"
	case errors.Is(err, services.ErrSinkUnavailable):
		status = http.StatusBadRequest
		response.Error = "Sink unavailable"
		response.Code = "SINK_UNAVAILABLE"
	case errors.Is(err, services.ErrInvalidGroupSize):
		status = http.StatusBadRequest
		response.Error = "Invalid group size"
		response.Code = "INVALID_GROUP_SIZE"
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"status":     status,
		"error":      err.Error(),
	}).Error("Tender request failed")

	c.JSON(status, response)
}
