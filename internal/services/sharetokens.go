package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wardrobe/backend/internal/models"
	"github.com/wardrobe/backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	// 32 random bytes gives 256 bits of entropy, well past the point
	// where guessing a token is feasible.
	shareTokenBytes    = 32
	shareTokenAttempts = 5
)

// ShareTokenService mints and resolves public share tokens. A token grants
// anonymous read and clone access to exactly one outfit until it expires,
// is revoked, or the outfit is deleted.
type ShareTokenService struct {
	DB       *gorm.DB
	Validity time.Duration
}

func NewShareTokenService(db *gorm.DB, validity time.Duration) *ShareTokenService {
	return &ShareTokenService{DB: db, Validity: validity}
}

// Issue mints a fresh token for the outfit. Every call produces a new token
// even when live ones already exist for the same outfit.
func (s *ShareTokenService) Issue(ctx context.Context, outfitID, issuerID uuid.UUID) (*models.ShareToken, error) {
	var outfit models.Outfit
	if err := s.DB.WithContext(ctx).First(&outfit, "id = ?", outfitID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("outfit not found")
		}
		return nil, err
	}
	if outfit.OwnerID != issuerID {
		return nil, Forbidden("only the owner can share an outfit")
	}

	now := time.Now().UTC()
	for attempt := 0; attempt < shareTokenAttempts; attempt++ {
		value, err := generateShareToken()
		if err != nil {
			return nil, err
		}

		token := models.ShareToken{
			Token:     value,
			OutfitID:  outfit.ID,
			IssuerID:  issuerID,
			ExpiresAt: now.Add(s.Validity),
		}
		err = s.DB.WithContext(ctx).Create(&token).Error
		if err == nil {
			return &token, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		logger.Warn("share_token_collision", map[string]interface{}{
			"outfit_id": outfit.ID.String(),
			"attempt":   attempt + 1,
		})
	}
	return nil, fmt.Errorf("failed generating a unique share token after %d attempts", shareTokenAttempts)
}

// Resolve returns the shared outfit's descriptive fields. It requires no
// caller identity. A token whose subject outfit was deleted reports Expired,
// never a stale success.
func (s *ShareTokenService) Resolve(ctx context.Context, tokenValue string) (*models.Outfit, error) {
	token, err := s.lookupLive(ctx, tokenValue)
	if err != nil {
		return nil, err
	}

	var outfit models.Outfit
	if err := s.DB.WithContext(ctx).First(&outfit, "id = ?", token.OutfitID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, Expired("share link is no longer available")
		}
		return nil, err
	}
	return &outfit, nil
}

// Redeem clones the shared outfit into the recipient's wardrobe: a brand-new
// record with the same descriptive fields and a usage count of zero. The
// read-validate-create sequence runs in one transaction so a token can never
// produce a half-committed clone.
func (s *ShareTokenService) Redeem(ctx context.Context, tokenValue string, recipientID uuid.UUID) (*models.Outfit, error) {
	var clone models.Outfit

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := &ShareTokenService{DB: tx, Validity: s.Validity}
		source, err := inner.Resolve(ctx, tokenValue)
		if err != nil {
			return err
		}

		var existing models.Outfit
		err = tx.First(&existing, "owner_id = ? AND name = ?", recipientID, source.Name).Error
		if err == nil {
			return Conflict(fmt.Sprintf("you already have an outfit named %q in your wardrobe", source.Name))
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		clone = models.Outfit{
			OwnerID:   recipientID,
			Name:      source.Name,
			Category:  source.Category,
			Season:    source.Season,
			Color:     source.Color,
			ImagePath: source.ImagePath,
		}
		if err := tx.Create(&clone).Error; err != nil {
			if isUniqueViolation(err) {
				return Conflict(fmt.Sprintf("you already have an outfit named %q in your wardrobe", source.Name))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &clone, nil
}

func (s *ShareTokenService) lookupLive(ctx context.Context, tokenValue string) (*models.ShareToken, error) {
	tokenValue = strings.TrimSpace(tokenValue)
	if tokenValue == "" {
		return nil, NotFound("share link not found")
	}

	var token models.ShareToken
	if err := s.DB.WithContext(ctx).First(&token, "token = ?", tokenValue).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("share link not found")
		}
		return nil, err
	}
	if !token.Live(time.Now().UTC()) {
		return nil, Expired("share link has expired")
	}
	return &token, nil
}

func generateShareToken() (string, error) {
	raw := make([]byte, shareTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
