package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/models"
	"gorm.io/gorm"
)

// ProfileHandler serves the authenticated user's profile.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// Get returns the current user's wallet identity and roles.
func (h *ProfileHandler) Get(c *gin.Context) {
	userID := c.GetUint64("userID")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	var roles []models.UserRole
	if errRoles := h.db.WithContext(c.Request.Context()).Where("user_id = ?", user.ID).Find(&roles).Error; errRoles != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query roles failed"})
		return
	}
	roleNames := make([]string, 0, len(roles))
	for _, role := range roles {
		roleNames = append(roleNames, role.Role)
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                      user.ID,
		"email":                   user.Email,
		"wallet_address":          user.WalletAddress,
		"auth_method":             user.AuthMethod,
		"nft_verified":            user.NFTVerified,
		"nft_verification_method": user.NFTVerificationMethod,
		"roles":                   roleNames,
	})
}
