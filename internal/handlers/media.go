package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/racon-ai/racon-backend/internal/errordata"
	"github.com/racon-ai/racon-backend/internal/response"
	"github.com/racon-ai/racon-backend/internal/services"
)

type MediaHandler struct {
	mediaService services.MediaService
}

func NewMediaHandler(mediaService services.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// GET /api/upload
func (mh *MediaHandler) UploadAuth(c *gin.Context) {
	auth, err := mh.mediaService.UploadAuth(c.Request.Context())
	if err != nil {
		errordata.Record(c.Request.Context(), err)
		response.RespondError(c, http.StatusInternalServerError, "internal", "Error signing upload!")
		return
	}
	response.RespondOK(c, auth)
}
