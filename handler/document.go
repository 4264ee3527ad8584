package handler

import (
	"github.com/aumugisha-umu/seido-backend/middleware"
	"github.com/aumugisha-umu/seido-backend/model"
	"github.com/aumugisha-umu/seido-backend/service"
	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: svc}
}

// Upload stores one multipart file and its metadata row.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondBadRequest(c, "No file provided")
		return
	}
	defer file.Close()

	docType := model.DocumentType(c.PostForm("type"))
	if docType == "" {
		docType = model.DocChatAttachment
	}

	doc, err := h.documents.Upload(c.Request.Context(), service.UploadInput{
		Filename:       header.Filename,
		Size:           header.Size,
		MimeType:       header.Header.Get("Content-Type"),
		Type:           docType,
		InterventionID: c.Param("id"),
		UnitID:         c.PostForm("unit_id"),
		UploadedBy:     middleware.GetUserID(c),
		Reader:         file,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, doc)
}

// DownloadURL returns a signed, time-limited URL for the stored object.
func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	url, err := h.documents.DownloadURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, gin.H{"url": url})
}
