package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rockfridrich/villa/bridge"
	"github.com/rockfridrich/villa/core"
	"github.com/rockfridrich/villa/internal/eth"
	"github.com/rockfridrich/villa/service"
)

// Handlers contains HTTP handlers for the auth, profile and relay endpoints
type Handlers struct {
	profiles *service.ProfileService
	relay    *service.RelayService
	bridge   *bridge.Bridge
}

// NewHandlers creates new API handlers
func NewHandlers(profiles *service.ProfileService, relay *service.RelayService, authBridge *bridge.Bridge) *Handlers {
	return &Handlers{
		profiles: profiles,
		relay:    relay,
		bridge:   authBridge,
	}
}

// SignIn runs one authentication handshake and blocks until it resolves
func (h *Handlers) SignIn(c *gin.Context) {
	var req struct {
		AppID   string `json:"app_id" binding:"required"`
		Network string `json:"network" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	cfg := bridge.Config{AppID: req.AppID, Network: core.Network(req.Network)}

	result, err := h.bridge.SignIn(c.Request.Context(), cfg)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorMsg := "Sign-in failed"

		switch {
		case errors.Is(err, core.ErrSignInInFlight):
			statusCode = http.StatusConflict
			errorMsg = "Sign-in already in progress"
		case errors.Is(err, core.ErrInvalidConfig), errors.Is(err, core.ErrUnknownNetwork):
			statusCode = http.StatusBadRequest
			errorMsg = err.Error()
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	if !result.OK {
		c.JSON(http.StatusOK, gin.H{
			"ok":      false,
			"kind":    result.Failure,
			"message": result.Message,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"identity":      result.Identity,
		"session_token": result.SessionToken,
	})
}

// SignOut clears the persisted identity
func (h *Handlers) SignOut(c *gin.Context) {
	if err := h.bridge.SignOut(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign out"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// Identity returns the persisted identity, if any
func (h *Handlers) Identity(c *gin.Context) {
	identity, err := h.bridge.CurrentIdentity(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read identity"})
		return
	}
	if identity == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No identity"})
		return
	}

	c.JSON(http.StatusOK, identity)
}

// Profile returns the authenticated caller's profile
func (h *Handlers) Profile(c *gin.Context) {
	address, exists := c.Get("userAddress")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	profile, err := h.profiles.Get(c.Request.Context(), address.(string))
	if err != nil {
		if errors.Is(err, core.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// ReserveNickname places a hold on a nickname for the caller
func (h *Handlers) ReserveNickname(c *gin.Context) {
	var req struct {
		Nickname string `json:"nickname" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	address := c.GetString("userAddress")

	err := h.profiles.ReserveNickname(c.Request.Context(), req.Nickname, address)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorMsg := "Failed to reserve nickname"

		switch {
		case errors.Is(err, core.ErrInvalidNickname):
			statusCode = http.StatusBadRequest
			errorMsg = "Invalid nickname"
		case errors.Is(err, core.ErrNicknameTaken):
			statusCode = http.StatusConflict
			errorMsg = "Nickname already taken"
		case errors.Is(err, core.ErrNicknameHeld):
			statusCode = http.StatusConflict
			errorMsg = "Nickname reserved by another address"
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reserved": req.Nickname})
}

// ClaimNickname converts the caller's hold into ownership
func (h *Handlers) ClaimNickname(c *gin.Context) {
	var req struct {
		Nickname string `json:"nickname" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	address := c.GetString("userAddress")

	profile, err := h.profiles.ClaimNickname(c.Request.Context(), req.Nickname, address)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorMsg := "Failed to claim nickname"

		switch {
		case errors.Is(err, core.ErrInvalidNickname):
			statusCode = http.StatusBadRequest
			errorMsg = "Invalid nickname"
		case errors.Is(err, core.ErrNoReservation):
			statusCode = http.StatusConflict
			errorMsg = "No reservation held for nickname"
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// SetAvatar updates the caller's avatar descriptor
func (h *Handlers) SetAvatar(c *gin.Context) {
	var req struct {
		Style     string `json:"style" binding:"required"`
		Selection string `json:"selection" binding:"required"`
		Variant   int    `json:"variant"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	address := c.GetString("userAddress")
	avatar := core.Avatar{Style: req.Style, Selection: req.Selection, Variant: req.Variant}

	profile, err := h.profiles.SetAvatar(c.Request.Context(), address, avatar)
	if err != nil {
		if errors.Is(err, core.ErrInvalidAvatar) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid avatar descriptor"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update avatar"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// NicknameAvailable reports whether a nickname can still be reserved
func (h *Handlers) NicknameAvailable(c *gin.Context) {
	nickname := c.Param("nickname")

	available, err := h.profiles.Available(c.Request.Context(), nickname)
	if err != nil {
		if errors.Is(err, core.ErrInvalidNickname) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid nickname"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check nickname"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nickname":  nickname,
		"available": available,
	})
}

// Sponsor runs the gas-sponsoring eligibility check
func (h *Handlers) Sponsor(c *gin.Context) {
	var req struct {
		Network    string `json:"network" binding:"required"`
		GasCostWei string `json:"gas_cost_wei" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	gasCost, err := eth.ParseWeiHex(req.GasCostWei)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gas cost"})
		return
	}

	address := c.GetString("userAddress")

	decision, err := h.relay.Sponsor(c.Request.Context(), address, core.Network(req.Network), gasCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check sponsorship"})
		return
	}

	c.JSON(http.StatusOK, decision)
}

// Health is the liveness probe
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
