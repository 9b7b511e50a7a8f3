package handlers

import (
	"net/http"
	"time"

	"video-catalog-api/internal/database"
	"video-catalog-api/internal/models"

	"github.com/gin-gonic/gin"
)

// ListUsers lists all users (admin only)
func ListUsers(c *gin.Context) {
	rows, err := database.DB.Query(`
		SELECT
			u.id,
			u.email,
			u.is_admin,
			u.status,
			u.created_at,
			u.updated_at
		FROM users u
		ORDER BY u.created_at DESC
	`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.IsAdmin,
			&user.Status,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			continue
		}
		users = append(users, user)
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// DeactivateUser deactivates a user's account (admin only). Deactivated
// uploaders are refused at login; their videos stay in the catalog.
func DeactivateUser(c *gin.Context) {
	setUserStatus(c, models.UserStatusInactive, "deactivate")
}

// ReactivateUser reactivates a previously deactivated account (admin only)
func ReactivateUser(c *gin.Context) {
	setUserStatus(c, models.UserStatusActive, "reactivate")
}

func setUserStatus(c *gin.Context, status, action string) {
	userID := c.Param("id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}

	var user models.User
	err := database.DB.QueryRow(`
		SELECT id, email, is_admin, status FROM users WHERE id = ?
	`, userID).Scan(&user.ID, &user.Email, &user.IsAdmin, &user.Status)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	// Admin accounts are never toggled
	if user.IsAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot " + action + " admin user"})
		return
	}

	currentTime := time.Now().Format(time.RFC3339)
	_, err = database.DB.Exec(`
		UPDATE users
		SET status = ?, updated_at = ?
		WHERE id = ?
	`, status, currentTime, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action + " user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User " + action + "d successfully",
		"user_id": userID,
	})
}
