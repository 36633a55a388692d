package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/config"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/security"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/settings"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/util"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/walletauth"
	log "github.com/sirupsen/logrus"
)

// Wallet auth request actions.
const (
	actionRequestNonce = "request-nonce"
	actionVerify       = "verify"
	actionNFTCheck     = "nft-check"
	actionExchange     = "exchange"
)

// WalletAuthHandler sequences the wallet challenge/response authentication flow.
type WalletAuthHandler struct {
	nonces   *walletauth.NonceStore
	oracle   *walletauth.Oracle
	resolver *walletauth.IdentityResolver
	issuer   *walletauth.SessionIssuer
	jwtCfg   config.JWTConfig
	contract string
	chainID  int64
}

// NewWalletAuthHandler constructs a WalletAuthHandler.
func NewWalletAuthHandler(
	nonces *walletauth.NonceStore,
	oracle *walletauth.Oracle,
	resolver *walletauth.IdentityResolver,
	issuer *walletauth.SessionIssuer,
	jwtCfg config.JWTConfig,
	walletCfg config.WalletConfig,
) *WalletAuthHandler {
	return &WalletAuthHandler{
		nonces:   nonces,
		oracle:   oracle,
		resolver: resolver,
		issuer:   issuer,
		jwtCfg:   jwtCfg,
		contract: walletCfg.ContractAddress,
		chainID:  walletCfg.ChainID,
	}
}

// walletAuthRequest is the action-discriminated request envelope.
//
// The body is decoded exactly once; the action switch below is the only place
// that routes it, so an unrecognized action can never fall through silently.
type walletAuthRequest struct {
	Action    string `json:"action"`
	Address   string `json:"address"`
	Purpose   string `json:"purpose"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
	Email     string `json:"email"`
	Token     string `json:"token"`
}

// Handle dispatches a wallet auth request to its action handler.
func (h *WalletAuthHandler) Handle(c *gin.Context) {
	var body walletAuthRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	switch strings.TrimSpace(body.Action) {
	case actionRequestNonce:
		h.requestNonce(c, body)
	case actionVerify:
		h.verify(c, body, false)
	case actionNFTCheck:
		h.nftCheck(c, body)
	case actionExchange:
		h.exchange(c, body)
	case "":
		// Pre-nonce clients send {message, signature, address} with no action.
		if body.Message != "" && body.Signature != "" {
			h.verify(c, body, true)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing action"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
	}
}

// requestNonce issues a fresh signing challenge.
func (h *WalletAuthHandler) requestNonce(c *gin.Context, body walletAuthRequest) {
	record, errIssue := h.nonces.Issue(c.Request.Context(), body.Address, body.Purpose)
	if errIssue != nil {
		h.reject(c, errIssue)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address":   record.Address,
		"nonce":     record.Nonce,
		"purpose":   record.Purpose,
		"issuedAt":  record.IssuedAt.Format(time.RFC3339),
		"expiresAt": record.ExpiresAt.Format(time.RFC3339),
	})
}

// verify runs the full authentication sequence: signature recovery, nonce (or
// legacy timestamp) validation, on-chain ownership, identity resolution and
// session issuance.
func (h *WalletAuthHandler) verify(c *gin.Context, body walletAuthRequest, legacy bool) {
	ctx := c.Request.Context()
	address := strings.TrimSpace(body.Address)
	if !walletauth.ValidAddress(address) {
		h.reject(c, &walletauth.Error{Kind: walletauth.KindValidation, Err: walletauth.ErrMalformedAddress})
		return
	}

	parsed, errParse := walletauth.ParseAuthMessage(body.Message)
	if errParse != nil {
		h.reject(c, errParse)
		return
	}
	if !strings.EqualFold(parsed.Wallet, address) {
		h.reject(c, &walletauth.Error{Kind: walletauth.KindAuthentication, Err: walletauth.ErrSignerMismatch})
		return
	}
	if legacy != parsed.Legacy {
		h.reject(c, &walletauth.Error{Kind: walletauth.KindValidation, Err: walletauth.ErrMalformedMessage})
		return
	}

	signer, errRecover := walletauth.RecoverAddress(body.Message, body.Signature)
	if errRecover != nil {
		h.reject(c, errRecover)
		return
	}
	if !strings.EqualFold(signer.Hex(), address) {
		log.Infof("wallet auth: signer mismatch for %s", util.ShortAddress(address))
		h.reject(c, &walletauth.Error{Kind: walletauth.KindAuthentication, Err: walletauth.ErrSignerMismatch})
		return
	}

	if legacy {
		if !settings.BoolValue(settings.LegacyLoginEnabledKey, settings.DefaultLegacyLoginEnabled) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "legacy login disabled"})
			return
		}
		// Weaker than the nonce flow; scheduled for removal.
		log.Warnf("wallet auth: legacy timestamp login used by %s", util.ShortAddress(address))
		if errWindow := walletauth.ValidateLegacyTimestamp(parsed.Unix, time.Now().UTC()); errWindow != nil {
			h.reject(c, errWindow)
			return
		}
	} else {
		purpose := strings.TrimSpace(body.Purpose)
		if !walletauth.ValidPurpose(purpose) {
			h.reject(c, &walletauth.Error{Kind: walletauth.KindValidation, Err: walletauth.ErrMalformedPurpose})
			return
		}
		if errConsume := h.nonces.Consume(ctx, address, parsed.Nonce, purpose); errConsume != nil {
			log.Infof("wallet auth: nonce rejected for %s: %v", util.ShortAddress(address), errConsume)
			h.reject(c, errConsume)
			return
		}
	}

	ownership, errCheck := h.oracle.CheckOwnership(ctx, address)
	if errCheck != nil {
		h.reject(c, errCheck)
		return
	}
	if !ownership.Owns {
		log.Infof("wallet auth: no gating token for %s (method=%s)", util.ShortAddress(address), ownership.Method)
		h.reject(c, &walletauth.Error{Kind: walletauth.KindAuthorization, Err: walletauth.ErrNotTokenHolder})
		return
	}

	identity, errResolve := h.resolver.ResolveEmail(ctx, address)
	if errResolve != nil {
		h.reject(c, errResolve)
		return
	}

	session, errIssue := h.issuer.IssueSession(ctx, address, ownership, identity)
	if errIssue != nil {
		h.reject(c, errIssue)
		return
	}

	log.Infof("wallet auth: session issued for %s (email=%s new=%t method=%s)",
		util.ShortAddress(address), util.MaskEmail(session.Email), session.IsNewUser, session.Method)
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"email":             session.Email,
		"token":             session.Token,
		"hashed_token":      session.HashedToken,
		"is_new_user":       session.IsNewUser,
		"is_linked_account": session.IsLinkedAccount,
		"nft_verification":  session.Method,
	})
}

// nftCheck is a read-only diagnostic that never issues a session.
func (h *WalletAuthHandler) nftCheck(c *gin.Context, body walletAuthRequest) {
	ctx := c.Request.Context()
	address := strings.TrimSpace(body.Address)

	ownership, errCheck := h.oracle.CheckOwnership(ctx, address)
	if errCheck != nil {
		h.reject(c, errCheck)
		return
	}

	link, errLookup := h.resolver.Lookup(ctx, address)
	if errLookup != nil {
		h.reject(c, errLookup)
		return
	}
	mappedEmail := ""
	if link != nil {
		mappedEmail = util.MaskEmail(link.Email)
	}

	balance := any(nil)
	if ownership.Balance != nil {
		balance = ownership.Balance.String()
	}
	c.JSON(http.StatusOK, gin.H{
		"address":            walletauth.NormalizeAddress(address),
		"ownsNFT":            ownership.Owns,
		"balance":            balance,
		"method":             ownership.Method,
		"contract":           h.contract,
		"chainId":            h.chainID,
		"isInAdminWhitelist": h.issuer.AdminEligible(address),
		"hasDbMapping":       link != nil,
		"mappedEmail":        mappedEmail,
		"checkedAt":          time.Now().UTC().Format(time.RFC3339),
	})
}

// exchange redeems a one-time login token for a session JWT.
func (h *WalletAuthHandler) exchange(c *gin.Context, body walletAuthRequest) {
	email := strings.TrimSpace(body.Email)
	token := strings.TrimSpace(body.Token)
	if email == "" || token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email or token"})
		return
	}

	user, errExchange := h.issuer.Exchange(c.Request.Context(), email, token)
	if errExchange != nil {
		h.reject(c, errExchange)
		return
	}

	sessionToken, errSign := security.GenerateSessionToken(h.jwtCfg.Secret, user.ID, user.Email, user.WalletAddress, h.jwtCfg.Expiry)
	if errSign != nil {
		h.reject(c, errSign)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"session_token": sessionToken,
		"expires_in":    int64(h.jwtCfg.Expiry.Seconds()),
	})
}

// reject writes a stable, non-leaking error response.
func (h *WalletAuthHandler) reject(c *gin.Context, err error) {
	typed := walletauth.AsError(err)
	message := typed.Error()
	if typed.Kind == walletauth.KindInfrastructure {
		log.WithError(err).Error("wallet auth: infrastructure failure")
		message = "internal error"
	}
	c.JSON(typed.HTTPStatus(), gin.H{"error": message})
}
