package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Solstice-Labs/HolderPerks/internal/auth"
	"github.com/Solstice-Labs/HolderPerks/internal/ledger"
)

type handlers struct {
	auth   *auth.Service
	ledger *ledger.Ledger
	wheel  *ledger.Wheel
	store  ledger.Store
	ops    *opCounter
}

const walletKey = "wallet"

// requireSession resolves the Authorization bearer token to a wallet and
// aborts unauthenticated requests.
func (h *handlers) requireSession(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if header == token {
		token = ""
	}

	wallet, err := h.auth.WalletForToken(c.Request.Context(), token)
	if err != nil {
		h.ops.Count("unauthenticated")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"code":    "UNAUTHENTICATED",
			"error":   "missing or expired session",
		})
		return
	}
	c.Set(walletKey, wallet)
	c.Next()
}

func (h *handlers) issueChallenge(c *gin.Context) {
	var req struct {
		Wallet string `json:"wallet" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "wallet is required"})
		return
	}

	message, expires, err := h.auth.IssueChallenge(c.Request.Context(), req.Wallet)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"wallet":     req.Wallet,
		"message":    message,
		"expires_at": expires.UTC().Format(time.RFC3339),
	})
}

func (h *handlers) verifySignature(c *gin.Context) {
	var req struct {
		Wallet    string `json:"wallet" binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "wallet and signature are required"})
		return
	}

	sess, err := h.auth.VerifyAndLogin(c.Request.Context(), req.Wallet, req.Signature)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ops.Count("login")
	c.JSON(http.StatusOK, gin.H{
		"token":      sess.Token,
		"expires_at": sess.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (h *handlers) claim(c *gin.Context) {
	wallet := c.GetString(walletKey)

	res, err := h.ledger.SettleAndClaim(c.Request.Context(), wallet)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ops.Count("claim")
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"amount_claimed": res.Amount,
		"hours":          res.Hours,
		"asset_count":    res.AssetCount,
	})
}

func (h *handlers) spin(c *gin.Context) {
	wallet := c.GetString(walletKey)

	res, err := h.wheel.ResolveWager(c.Request.Context(), wallet)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ops.Count("spin")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"slot":    res.Slot,
		"payout":  res.Payout,
		"balance": res.Balance,
	})
}

func (h *handlers) account(c *gin.Context) {
	wallet := c.GetString(walletKey)

	acct, err := h.store.GetAccount(c.Request.Context(), wallet)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"wallet":            acct.Wallet,
		"balance":           acct.Balance,
		"qualifying_assets": acct.QualifyingAssets,
		"last_settlement":   acct.LastSettlement.UTC().Format(time.RFC3339),
		"next_claim_at":     acct.LastSettlement.Add(time.Hour).UTC().Format(time.RFC3339),
	})
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"operations": h.ops.Snapshot(),
	})
}

// fail translates typed failures into HTTP responses. The sentinel text is
// the caller-visible code.
func (h *handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL"

	switch {
	case errors.Is(err, ledger.ErrUnauthenticated),
		errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrSessionExpired):
		status, code = http.StatusUnauthorized, "UNAUTHENTICATED"
	case errors.Is(err, ledger.ErrAccountNotFound):
		status, code = http.StatusNotFound, "ACCOUNT_NOT_FOUND"
	case errors.Is(err, ledger.ErrRetryNeeded):
		status, code = http.StatusConflict, "RETRY_NEEDED"
	case errors.Is(err, ledger.ErrTooEarly):
		status, code = http.StatusConflict, "TOO_EARLY"
	case errors.Is(err, ledger.ErrInsufficientBalance):
		status, code = http.StatusPaymentRequired, "INSUFFICIENT_BALANCE"
	case errors.Is(err, auth.ErrInvalidWallet),
		errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, auth.ErrChallengeExpired),
		errors.Is(err, auth.ErrChallengeNotFound):
		status, code = http.StatusUnauthorized, err.Error()
	}

	h.ops.Count("failure:" + code)
	c.JSON(status, gin.H{"success": false, "code": code, "error": err.Error()})
}
