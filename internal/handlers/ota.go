package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"wifi_provisioner/internal/models"
	"wifi_provisioner/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	otaChunkSize = 4 << 10

	msgOK   = "OK"
	msgFail = "FAIL"

	headerFirmwareSHA256 = "X-Firmware-SHA256"
)

// @Summary      Upload firmware
// @Description  Streams a multipart file part (or a raw body) into the update slot.
// @Description  The device restarts afterwards whatever the result.
// @Tags         ota
// @Accept       multipart/form-data
// @Produce      plain
// @Param        update  formData  file    true   "Firmware image"
// @Param        sha256  query     string  false  "Expected SHA-256 of the image, hex"
// @Success      200  {string}  string  "OK or FAIL"
// @Failure      409  {string}  string  "FAIL, another upload is running"
// @Router       /update [post]
func (h *Handler) uploadFirmware(c *gin.Context) {
	ctx := c.Request.Context()

	filename, body, err := openUpload(c.Request)
	if err != nil {
		h.log.Warnw("ota_bad_request", "err", err)
		body = nil
	}

	phase, err := h.dispatch(ctx, service.OTAEvent{Kind: service.EventStart, Filename: filename})
	if errors.Is(err, service.ErrSessionActive) {
		// the running upload keeps the device; no restart for this one
		c.String(http.StatusConflict, msgFail)
		return
	}

	if body != nil && phase == models.OTAReceiving {
		h.streamFirmware(ctx, body)
	}

	phase, err = h.dispatch(ctx, service.OTAEvent{Kind: service.EventEnd, SHA256: firmwareDigest(c)})
	result := msgFail
	if err == nil && phase == models.OTADone {
		result = msgOK
	}

	c.Header("Connection", "close")
	c.String(http.StatusOK, result)
	h.services.Announcer.Log(models.EventOTA, "Firmware update "+result+". Rebooting...")
	h.services.Restarts.BlinkThenRestart("firmware update " + strings.ToLower(string(phase)))
}

// streamFirmware feeds body to the OTA session chunk by chunk.
func (h *Handler) streamFirmware(ctx context.Context, body io.Reader) {
	buf := make([]byte, otaChunkSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			phase, derr := h.dispatch(ctx, service.OTAEvent{Kind: service.EventChunk, Data: chunk})
			if derr != nil || phase != models.OTAReceiving {
				// End reports the failure
				return
			}
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			_, _ = h.dispatch(ctx, service.OTAEvent{Kind: service.EventAbort, Reason: err.Error()})
			return
		}
	}
}

// dispatch runs one OTA event on the run loop.
func (h *Handler) dispatch(ctx context.Context, ev service.OTAEvent) (models.OTAPhase, error) {
	var (
		phase models.OTAPhase
		err   error
	)
	if lerr := h.loop.Do(ctx, func() { phase, err = h.services.Firmware.Dispatch(ev) }); lerr != nil {
		return models.OTAFailed, fmt.Errorf("ota %s: %w", ev.Kind, lerr)
	}
	return phase, err
}

// openUpload returns the first file part of a multipart request, or the
// raw body for any other content type.
func openUpload(r *http.Request) (string, io.Reader, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		return r.URL.Query().Get("filename"), r.Body, nil
	}
	mr, err := r.MultipartReader()
	if err != nil {
		return "", nil, fmt.Errorf("open multipart body: %w", err)
	}
	for {
		part, err := mr.NextPart()
		if err != nil {
			return "", nil, fmt.Errorf("find firmware part: %w", err)
		}
		if part.FileName() != "" {
			return part.FileName(), part, nil
		}
		_ = drainPart(part)
	}
}

func drainPart(p *multipart.Part) error {
	_, err := io.Copy(io.Discard, p)
	return err
}

func firmwareDigest(c *gin.Context) string {
	if v := c.Query("sha256"); v != "" {
		return v
	}
	return c.GetHeader(headerFirmwareSHA256)
}
