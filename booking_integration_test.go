package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/alexeybedrinsky/restaurant-booking/models"
	"github.com/alexeybedrinsky/restaurant-booking/router"
	"github.com/alexeybedrinsky/restaurant-booking/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type silentMailer struct{}

func (silentMailer) SendReservationStatus(r *models.Reservation, status string) error { return nil }

func (silentMailer) SendFeedback(name, email, message string) error { return nil }

func setupIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Table{}, &models.Reservation{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	// Staff accounts are provisioned administratively, so seed one.
	hash, err := bcrypt.GenerateFromPassword([]byte("staffpass123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	staff := models.User{
		Name:     "Staff Member",
		Email:    "staff@restaurant.local",
		Password: string(hash),
		Role:     "staff",
	}
	if err := db.Create(&staff).Error; err != nil {
		t.Fatalf("failed to seed staff user: %v", err)
	}

	db.Create(&models.Table{Number: 1, Capacity: 2, IsAvailable: true})
	db.Create(&models.Table{Number: 2, Capacity: 4, IsAvailable: true})

	return db
}

func request(t *testing.T, r *gin.Engine, method, url, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
	}
	return response
}

func login(t *testing.T, r *gin.Engine, email, password string) string {
	t.Helper()
	w := request(t, r, "POST", "/login", "", map[string]interface{}{
		"email":    email,
		"password": password,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	return data["token"].(string)
}

// TestBookingFlow walks the main lifecycle end to end:
// guest submits a booking, staff confirms it, the guest reviews and
// cancels it, and staff resets the table pool afterwards.
func TestBookingFlow(t *testing.T) {
	db := setupIntegrationDB(t)
	r := router.SetupRouter(db, silentMailer{})

	// Guest account for the my-reservations view.
	w := request(t, r, "POST", "/register", "", map[string]interface{}{
		"name":     "Guest",
		"email":    "guest@example.com",
		"password": "guestpass123",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	guestToken := login(t, r, "guest@example.com", "guestpass123")
	staffToken := login(t, r, "staff@restaurant.local", "staffpass123")

	// 1. Guest books for 3: only the capacity-4 table qualifies.
	future := time.Now().Add(48 * time.Hour)
	w = request(t, r, "POST", "/reservations", "", map[string]interface{}{
		"date":   future.Format("2006-01-02"),
		"time":   future.Format("15:04"),
		"guests": 3,
		"phone":  "+79990001122",
		"email":  "guest@example.com",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)["data"].(map[string]interface{})
	reservationID := int(created["id"].(float64))
	tableID := uint(created["table_id"].(float64))

	var small, big models.Table
	db.Where("number = ?", 1).First(&small)
	db.Where("number = ?", 2).First(&big)
	assert.True(t, small.IsAvailable)
	assert.False(t, big.IsAvailable)
	assert.Equal(t, big.ID, tableID)

	// 2. Guests cannot confirm.
	w = request(t, r, "POST", fmt.Sprintf("/api/reservations/%d/confirm", reservationID),
		guestToken, map[string]interface{}{"table_id": tableID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 3. Staff confirms, keeping the already-held table.
	w = request(t, r, "POST", fmt.Sprintf("/api/reservations/%d/confirm", reservationID),
		staffToken, map[string]interface{}{"table_id": tableID})
	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "confirmed", data["status"])

	// 4. Guest sees exactly their own booking.
	w = request(t, r, "GET", "/api/my-reservations", guestToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	mine := decode(t, w)["data"].([]interface{})
	assert.Len(t, mine, 1)

	// 5. Guest cancels; the table returns to the pool.
	w = request(t, r, "POST", fmt.Sprintf("/api/reservations/%d/cancel", reservationID),
		guestToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	db.Where("number = ?", 2).First(&big)
	assert.True(t, big.IsAvailable)

	// 6. Staff resets the pool; every table reports available.
	db.Model(&models.Table{}).Where("number = ?", 1).Update("is_available", false)
	w = request(t, r, "POST", "/api/admin/tables/reset", staffToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resetData := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), resetData["reset"])

	var availableCount int64
	db.Model(&models.Table{}).Where("is_available = ?", true).Count(&availableCount)
	assert.Equal(t, int64(2), availableCount)
}

func TestUnauthenticatedAccess(t *testing.T) {
	db := setupIntegrationDB(t)
	r := router.SetupRouter(db, silentMailer{})

	w := request(t, r, "GET", "/api/reservations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(t, r, "POST", "/api/admin/tables/reset", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Health stays public.
	w = request(t, r, "GET", "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestRateLimitAppliesToRoutes hammers a registered route and expects the
// per-IP limiter to start rejecting once the window is exhausted.
func TestRateLimitAppliesToRoutes(t *testing.T) {
	db := setupIntegrationDB(t)
	r := router.SetupRouter(db, silentMailer{})

	w := request(t, r, "GET", "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	limited := false
	for i := 0; i < 60; i++ {
		w = request(t, r, "GET", "/ping", "", nil)
		if w.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "expected a 429 once the request budget was spent")
}

func TestFeedbackEndpoint(t *testing.T) {
	db := setupIntegrationDB(t)
	r := router.SetupRouter(db, silentMailer{})

	w := request(t, r, "POST", "/feedback", "", map[string]interface{}{
		"name":    "Visitor",
		"email":   "visitor@example.com",
		"message": "Loved the food!",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(t, r, "POST", "/feedback", "", map[string]interface{}{
		"name": "Visitor",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// The user-facing reservation service error taxonomy is covered in
// services and Controllers_test; this just pins the check-availability
// JSON contract at the wired route.
func TestCheckAvailabilityContract(t *testing.T) {
	db := setupIntegrationDB(t)
	r := router.SetupRouter(db, silentMailer{})

	future := time.Now().Add(48 * time.Hour)
	url := fmt.Sprintf("/reservations/check-availability?date=%s&time=%s&guests=2",
		future.Format("2006-01-02"), future.Format("15:04"))

	w := request(t, r, "GET", url, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"available": true}`, w.Body.String())
}
