package notify

import (
	"log"

	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"
)

// Send writes an in-app notification. Best effort: a failed write is logged
// and never blocks or reverses the decision that produced it.
func Send(userID uint, projectID *uint, title, message string) {
	n := models.Notification{
		UserID:    userID,
		ProjectID: projectID,
		Title:     title,
		Message:   message,
	}
	if err := database.DB.Create(&n).Error; err != nil {
		log.Printf("notification write failed (user=%d): %v", userID, err)
	}
}

// SendToRole notifies every active user holding the given role.
func SendToRole(role models.UserRole, projectID *uint, title, message string) {
	var users []models.User
	if err := database.DB.Where("role = ?", role).Find(&users).Error; err != nil {
		log.Printf("notification recipient lookup failed (role=%s): %v", role, err)
		return
	}
	for _, u := range users {
		Send(u.ID, projectID, title, message)
	}
}
