package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"calorietrack/apperrors"
	"calorietrack/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func TestJWTRoundTrip(t *testing.T) {
	t.Parallel()

	token, err := GenerateJWT("secret", "user-1", time.Minute)
	require.NoError(t, err)

	userID, err := ParseJWT("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = ParseJWT("other", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTRejects(t *testing.T) {
	t.Parallel()

	expired, err := GenerateJWT("secret", "user-1", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT("secret", expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": "user-1"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ParseJWT("secret", noExp)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = GenerateJWT("", "user-1", time.Minute)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestPasswordHash(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPasswordHash("hunter22", hash))
	assert.False(t, CheckPasswordHash("hunter23", hash))
}

func failWith(t *testing.T, dev bool, err error) (int, APIResponse) {
	t.Helper()

	r := NewResponder(dev, logger.Discard())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Fail(c, err, "something failed")

	var body APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestResponderFail(t *testing.T) {
	t.Parallel()

	code, body := failWith(t, false, apperrors.NotFound("op", "food log not found"))
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, body.Success)
	assert.Equal(t, "food log not found", body.Message)
	assert.Empty(t, body.Error)

	code, body = failWith(t, false, errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "something failed", body.Message)
	assert.Empty(t, body.Error, "internal detail stays hidden outside development")

	_, body = failWith(t, true, errors.New("pq: connection refused"))
	assert.Equal(t, "pq: connection refused", body.Error)
}

type mealForm struct {
	Name     string   `json:"name" binding:"required"`
	Email    string   `json:"email" binding:"omitempty,email"`
	Password string   `json:"password" binding:"omitempty,min=6"`
	Calories *float64 `json:"calories" binding:"required,gte=0"`
	Score    *float64 `json:"score" binding:"omitempty,gte=0,lte=1"`
	Grams    float64  `json:"grams" binding:"omitempty,gt=0"`
	Meal     string   `json:"meal" binding:"omitempty,oneof=breakfast lunch"`
}

func TestValidateStructMessages(t *testing.T) {
	t.Parallel()

	zero, neg, high := 0.0, -2.0, 1.5
	tests := []struct {
		name string
		form mealForm
		want string
	}{
		{"missing name", mealForm{Calories: &zero}, "name is required"},
		{"nil pointer", mealForm{Name: "soup"}, "calories is required"},
		{"negative", mealForm{Name: "soup", Calories: &neg}, "calories cannot be negative"},
		{"above max", mealForm{Name: "soup", Calories: &zero, Score: &high}, "score must be at most 1"},
		{"not positive", mealForm{Name: "soup", Calories: &zero, Grams: -1}, "grams must be greater than 0"},
		{"bad email", mealForm{Name: "soup", Calories: &zero, Email: "nope"}, "invalid email address"},
		{"short password", mealForm{Name: "soup", Calories: &zero, Password: "123"}, "password must be at least 6 characters"},
		{"unknown meal", mealForm{Name: "soup", Calories: &zero, Meal: "brunch"}, "meal must be one of breakfast, lunch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct("test", tt.form)
			require.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.Equal(t, tt.want, apperrors.PublicMessage(err, ""))
		})
	}

	assert.NoError(t, ValidateStruct("test", mealForm{Name: "soup", Calories: &zero}), "zero is a value, not absence")
}

func TestInputErrorForMalformedBody(t *testing.T) {
	t.Parallel()

	err := InputError("test", errors.New("unexpected EOF"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, "invalid request body", apperrors.PublicMessage(err, ""))
}
