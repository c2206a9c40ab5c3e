package handlers

import (
	"errors"
	"net/http"

	"wifi_provisioner/internal/models"
	"wifi_provisioner/internal/service"
	"wifi_provisioner/web"

	"github.com/gin-gonic/gin"
)

// Plain-text bodies the setup page and scripts rely on.
const (
	msgSaved            = "Saved. Rebooting..."
	msgSSIDRequired     = "SSID required"
	msgMethodNotAllowed = "Method Not Allowed"
	msgSaveFailed       = "Save failed"
	msgNotFound         = "Not found"
	msgSavedBroadcast   = "Wi-Fi credentials saved. Rebooting..."

	contentTypeHTML = "text/html; charset=utf-8"
)

func (h *Handler) fallbackMode() bool {
	return h.services.DeviceInfo.Mode() != models.JoinedSTA
}

// index serves the setup form in fallback mode and the dashboard otherwise.
func (h *Handler) index(c *gin.Context) {
	if h.fallbackMode() {
		c.Data(http.StatusOK, contentTypeHTML, web.Portal)
		return
	}
	c.Data(http.StatusOK, contentTypeHTML, h.dashboard)
}

func (h *Handler) notFound(c *gin.Context) {
	if h.fallbackMode() {
		h.index(c)
		return
	}
	c.String(http.StatusNotFound, msgNotFound)
}

// formValue reads a form field, falling back to the query string.
func formValue(c *gin.Context, key string) string {
	if v, ok := c.GetPostForm(key); ok {
		return v
	}
	return c.Query(key)
}

// @Summary      Save network credentials
// @Description  Stores ssid/pass and restarts the device. Form or query parameters.
// @Tags         portal
// @Accept       x-www-form-urlencoded
// @Produce      plain
// @Param        ssid  formData  string  true   "Network name"
// @Param        pass  formData  string  false  "Network password"
// @Success      200  {string}  string  "Saved. Rebooting..."
// @Failure      400  {string}  string  "SSID required"
// @Failure      405  {string}  string  "Method Not Allowed"
// @Failure      500  {string}  string  "Save failed"
// @Router       /save [post]
func (h *Handler) saveCredentials(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.String(http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}
	creds := models.Credentials{NetworkName: formValue(c, "ssid"), Secret: formValue(c, "pass")}

	err := h.services.Credentials.Save(c.Request.Context(), creds)
	switch {
	case errors.Is(err, service.ErrSSIDRequired):
		c.String(http.StatusBadRequest, msgSSIDRequired)
		return
	case err != nil:
		h.log.Errorw("credentials_save_failed", "err", err, "ssid", creds.NetworkName)
		c.String(http.StatusInternalServerError, msgSaveFailed)
		h.services.Restarts.After(h.opts.SaveRebootDelay, "credential save failed")
		return
	}

	c.String(http.StatusOK, msgSaved)
	h.services.Announcer.Log(models.EventCredentials, msgSavedBroadcast)
	h.services.Restarts.After(h.opts.SaveRebootDelay, "credentials saved")
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": h.services.DeviceInfo.Mode()})
}
