package service

import (
	"testing"
	"time"

	"github.com/pawsnest/backend/internal/models"
	"go.uber.org/zap"
)

// testEnv wires every service to one memDB.
type testEnv struct {
	db    *memDB
	mail  *recordingScheduler
	hub   *recordingHub
	notif *NotificationService

	identity *IdentityService
	catalog  *CatalogService
	bookings *BookingService
	adoption *AdoptionService
	feedback *FeedbackService
	chat     *ChatService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newMemDB()
	logger := zap.NewNop()
	sched := &recordingScheduler{}
	hub := &recordingHub{}
	notif := NewNotificationService(memNotifications{db})

	return &testEnv{
		db:       db,
		mail:     sched,
		hub:      hub,
		notif:    notif,
		identity: NewIdentityService(memUsers{db}, sched, "test-secret", time.Hour, logger),
		catalog:  NewCatalogService(memPets{db}, logger),
		bookings: NewBookingService(memBookings{db}, memUsers{db}, notif, sched, logger),
		adoption: NewAdoptionService(memAdoptions{db}, memPets{db}, memUsers{db}, notif, sched, logger),
		feedback: NewFeedbackService(memFeedback{db}),
		chat:     NewChatService(memRooms{db}, memMessages{db}, memPets{db}, hub, logger),
	}
}

func callerOf(u *models.User) Caller {
	return Caller{ID: u.ID, Role: u.Role}
}
