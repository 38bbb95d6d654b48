package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/you/homeauth/domain"
)

// userPayload never exposes hashes, OTP state or lockout counters
func userPayload(identity *domain.Identity) gin.H {
	return gin.H{
		"id":              identity.ID,
		"username":        identity.Username,
		"email":           identity.Email,
		"phone":           identity.Phone,
		"name":            identity.Name,
		"role":            identity.Role,
		"isPhoneVerified": identity.IsPhoneVerified,
		"isEmailVerified": identity.IsEmailVerified,
		"createdAt":       identity.CreatedAt,
	}
}

func workerPayload(identity *domain.Identity) gin.H {
	payload := gin.H{
		"id":              identity.ID,
		"name":            identity.Name,
		"phone":           identity.Phone,
		"email":           identity.Email,
		"username":        identity.Username,
		"isPhoneVerified": identity.IsPhoneVerified,
		"accountStatus":   identity.Status(),
	}
	if w := identity.Worker; w != nil {
		payload["primaryCategory"] = w.PrimaryCategory
		payload["verified"] = w.Verified
		payload["currentlyAvailable"] = w.CurrentlyAvailable
	}
	return payload
}

// workerProfilePayload is the full self view of a worker
func workerProfilePayload(identity *domain.Identity) gin.H {
	payload := workerPayload(identity)
	if w := identity.Worker; w != nil {
		payload["skills"] = w.Skills
		payload["bio"] = w.Bio
		payload["yearsExperience"] = w.YearsExperience
		payload["pricePerHour"] = w.PricePerHour
		payload["minimumCharge"] = w.MinimumCharge
		payload["latitude"] = w.Latitude
		payload["longitude"] = w.Longitude
		payload["serviceRadiusKm"] = w.ServiceRadiusKM
		payload["language"] = w.Language
		if w.AccountStatus == domain.StatusSuspended {
			payload["suspensionReason"] = w.SuspensionReason
		}
	}
	payload["lastLoginAt"] = identity.LastLoginAt
	payload["createdAt"] = identity.CreatedAt
	return payload
}

func tokenPayload(tokens *domain.TokenPair) gin.H {
	return gin.H{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
		"expiresIn":    tokens.ExpiresIn,
	}
}
