package authService

import "ekyc-backend/internal/entity"

// MakeUserData holds the claims embedded in the access token.
func MakeUserData(user entity.User) map[string]interface{} {
	return map[string]interface{}{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	}
}
