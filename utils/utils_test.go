package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"+84901234567", true},
		{"+1 (555) 123-4567", true},
		{"84901234567", true},
		{"0901234567", false},
		{"+0", false},
		{"abc", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidatePhone(tt.phone); got != tt.want {
			t.Errorf("ValidatePhone(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
}

func TestPasswordHash(t *testing.T) {
	SetBcryptCost(4)
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPasswordHash("s3cret", hash) {
		t.Fatal("password did not match its hash")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Fatal("wrong password matched")
	}
}

func TestDaysUntil(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	saigon := time.FixedZone("ICT", 7*60*60)

	tests := []struct {
		name     string
		now, due time.Time
		want     int
	}{
		{"same day", time.Date(2026, 6, 10, 23, 30, 0, 0, time.UTC), time.Date(2026, 6, 10, 1, 0, 0, 0, time.UTC), 0},
		{"tomorrow", time.Date(2026, 6, 10, 23, 30, 0, 0, time.UTC), time.Date(2026, 6, 11, 0, 15, 0, 0, time.UTC), 1},
		{"three days", time.Date(2026, 6, 10, 23, 30, 0, 0, time.UTC), time.Date(2026, 6, 13, 8, 0, 0, 0, time.UTC), 3},
		{"overdue", time.Date(2026, 6, 10, 23, 30, 0, 0, time.UTC), time.Date(2026, 6, 9, 23, 59, 0, 0, time.UTC), -1},
		{"23 hour day", time.Date(2026, 3, 8, 0, 0, 0, 0, newYork), time.Date(2026, 3, 9, 0, 0, 0, 0, newYork), 1},
		{"23 hour day overdue", time.Date(2026, 3, 9, 0, 0, 0, 0, newYork), time.Date(2026, 3, 8, 0, 0, 0, 0, newYork), -1},
		{"25 hour day", time.Date(2026, 11, 1, 0, 0, 0, 0, newYork), time.Date(2026, 11, 3, 0, 0, 0, 0, newYork), 2},
		{"stored utc due date", time.Date(2026, 6, 10, 9, 0, 0, 0, saigon), time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC), 0},
		{"due read on local clock", time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC), time.Date(2026, 6, 11, 23, 0, 0, 0, newYork), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysUntil(tt.now, tt.due); got != tt.want {
				t.Errorf("DaysUntil(%v, %v) = %d, want %d", tt.now, tt.due, got, tt.want)
			}
		})
	}
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString("userId"), "role": c.GetString("role")})
	})
	r.GET("/admin", AuthMiddleware(), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/items/:id", func(c *gin.Context) {
		id, ok := ParseIDParam(c, "id", "item")
		if !ok {
			return
		}
		c.String(http.StatusOK, id.String())
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	ConfigureJWT("0123456789abcdef0123", 1)
	r := newAuthRouter()

	staff, err := GenerateToken(uuid.NewString(), "staff")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	admin, err := GenerateToken(uuid.NewString(), "admin")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	tests := []struct {
		name   string
		path   string
		header string
		cookie string
		want   int
	}{
		{"no token", "/me", "", "", http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer nope", "", http.StatusUnauthorized},
		{"bearer header", "/me", "Bearer " + staff, "", http.StatusOK},
		{"cookie", "/me", "", staff, http.StatusOK},
		{"staff on admin route", "/admin", "Bearer " + staff, "", http.StatusForbidden},
		{"admin on admin route", "/admin", "Bearer " + admin, "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestParseIDParam(t *testing.T) {
	r := newAuthRouter()

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/items/not-a-uuid", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if want := `"message":"Invalid item ID format"`; !strings.Contains(rr.Body.String(), want) {
		t.Fatalf("body = %s", rr.Body.String())
	}

	id := uuid.New()
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/items/"+id.String(), nil))
	if rr.Code != http.StatusOK || rr.Body.String() != id.String() {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
}
